package messages

import (
	"fmt"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/entities"
)

// SensorState is the payload on labs/<lab>/sensors/<id>/state. Either metric
// may be absent (a probe can report only one of the two).
type SensorState struct {
	SensorID string   `json:"sensor_id"`
	T        *float64 `json:"t,omitempty"`
	H        *float64 `json:"h,omitempty"`
	Ts       int64    `json:"ts"`
}

func (m SensorState) Validate() error {
	if m.SensorID == "" {
		return fmt.Errorf("sensor state: missing sensor_id")
	}
	if m.Ts <= 0 {
		return fmt.Errorf("sensor state: missing or invalid ts")
	}
	if m.T == nil && m.H == nil {
		return fmt.Errorf("sensor state: payload carries neither t nor h")
	}
	return nil
}

// ActuatorState is the feedback payload on labs/<lab>/actuators/<id>/state.
type ActuatorState struct {
	ActuatorID string                  `json:"actuator_id"`
	State      entities.ActuatorAction `json:"state"`
	Ts         int64                   `json:"ts"`
}

func (m ActuatorState) Validate() error {
	if m.ActuatorID == "" {
		return fmt.Errorf("actuator state: missing actuator_id")
	}
	if !m.State.Valid() {
		return fmt.Errorf("actuator state: invalid state %q", m.State)
	}
	if m.Ts <= 0 {
		return fmt.Errorf("actuator state: missing or invalid ts")
	}
	return nil
}

// Command is published on labs/<lab>/actuators/<id>/cmd.
type Command struct {
	Action entities.ActuatorAction `json:"action"`
	Source string                  `json:"source"` // controller | bot | ui
	Ts     int64                   `json:"ts"`
}
