package entities

// Sensor is a temperature/humidity probe belonging to a lab.
type Sensor struct {
	ID    string `json:"sensor_id"`
	LabID string `json:"lab_id"`
	Kind  string `json:"type"` // e.g. "dht22"; informational only
}
