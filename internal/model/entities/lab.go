package entities

// Lab groups the sensors and actuators of one controlled room together with
// its threshold set.
type Lab struct {
	ID          string       `json:"lab_id"`
	Name        string       `json:"name"`
	SensorIDs   []string     `json:"sensors"`
	ActuatorIDs []string     `json:"actuators"`
	Thresholds  ThresholdSet `json:"thresholds"`
}
