package entities

// ActuatorAction is the commanded/observed on-off state of an actuator.
type ActuatorAction string

const (
	ActionOn  ActuatorAction = "ON"
	ActionOff ActuatorAction = "OFF"
)

// Valid reports whether the action is one of the two states on the wire.
func (a ActuatorAction) Valid() bool {
	return a == ActionOn || a == ActionOff
}

// ActuatorClass selects which rule the evaluator applies to an actuator.
type ActuatorClass string

const (
	ClassFan          ActuatorClass = "fan"
	ClassHeater       ActuatorClass = "heater"
	ClassHumidifier   ActuatorClass = "humidifier"
	ClassDehumidifier ActuatorClass = "dehumidifier"
)

func (c ActuatorClass) Valid() bool {
	switch c {
	case ClassFan, ClassHeater, ClassHumidifier, ClassDehumidifier:
		return true
	}
	return false
}

// Actuator is a controllable device belonging to a lab.
type Actuator struct {
	ID    string        `json:"actuator_id"`
	LabID string        `json:"lab_id"`
	Class ActuatorClass `json:"type"`
}
