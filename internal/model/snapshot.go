// Package model holds the read-only snapshot types served to external
// aggregators (registry, dashboard, chat-bot, cloud uplink).
package model

import "github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/entities"

// Reading is the latest value pair seen for one sensor.
type Reading struct {
	T  *float64 `json:"t"`
	H  *float64 `json:"h"`
	Ts int64    `json:"ts"`
}

// SensorView is one sensor's slot in a lab snapshot. Reading is nil until the
// first message arrives; Offline means the last reading aged past the
// configured timeout.
type SensorView struct {
	SensorID string   `json:"sensor_id"`
	LabID    string   `json:"lab_id"`
	Reading  *Reading `json:"reading"`
	Offline  bool     `json:"offline"`
}

// ObservedState is the last state the actuator itself reported.
type ObservedState struct {
	State entities.ActuatorAction `json:"state"`
	Ts    int64                   `json:"ts"`
}

// CommandView is the last command intent emitted for an actuator.
type CommandView struct {
	Action entities.ActuatorAction `json:"action"`
	Source string                  `json:"source"`
	Ts     int64                   `json:"ts"`
}

// ActuatorView pairs observed state with the last emitted intent. A command
// is never assumed executed: Observed only moves on device feedback.
type ActuatorView struct {
	ActuatorID  string                 `json:"actuator_id"`
	Class       entities.ActuatorClass `json:"type"`
	Observed    *ObservedState         `json:"state"`
	LastCommand *CommandView           `json:"last_command"`
}

type Alerts struct {
	SensorOffline bool `json:"sensor_offline"`
}

// LabView is the per-lab projection. It is a full copy: callers may hold or
// mutate it freely without touching live state.
type LabView struct {
	LabID      string                `json:"lab_id"`
	Name       string                `json:"name"`
	Thresholds entities.ThresholdSet `json:"thresholds"`
	Sensors    []SensorView          `json:"sensors"`
	Actuators  []ActuatorView        `json:"actuators"`
	Alerts     Alerts                `json:"alerts"`
}

// Snapshot is the full controller projection served on /snapshot.
type Snapshot struct {
	Labs []LabView `json:"labs"`
}
