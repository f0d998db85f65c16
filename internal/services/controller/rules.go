package controller

import (
	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/entities"
)

// Readings is the per-lab aggregate fed to the evaluator: the maximum value
// per metric across the lab's live sensors. A nil metric means no sensor
// currently provides it.
type Readings struct {
	T *float64
	H *float64
}

// HysteresisState is the evaluator's memory for one actuator. It persists
// across ticks for the lifetime of the process and is owned exclusively by
// the control loop.
type HysteresisState struct {
	Commanded    entities.ActuatorAction
	HasCommanded bool
	LastOn       int64 // epoch seconds of the last OFF->ON transition
	LastOff      int64 // epoch seconds of the last ON->OFF transition
}

func (h HysteresisState) prev() entities.ActuatorAction {
	if !h.HasCommanded {
		return entities.ActionOff
	}
	return h.Commanded
}

// Outcome tells why the evaluator landed on its desired state, so "no data,
// holding" is observable separately from "holding inside the band".
type Outcome int

const (
	// OutcomeNoData: no usable reading for the metrics this class needs;
	// the actuator state must not change.
	OutcomeNoData Outcome = iota
	// OutcomeHold: evaluated, holding the previous state (inside the
	// hysteresis band, or the active condition still holds).
	OutcomeHold
	// OutcomeHoldOffDelay: OFF conditions are met but the minimum-on time
	// has not elapsed yet; held ON, re-checked next tick.
	OutcomeHoldOffDelay
	// OutcomeSwitchOn / OutcomeSwitchOff: a transition happened this tick.
	OutcomeSwitchOn
	OutcomeSwitchOff
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoData:
		return "no_data"
	case OutcomeHold:
		return "hold"
	case OutcomeHoldOffDelay:
		return "hold_off_delay"
	case OutcomeSwitchOn:
		return "switch_on"
	case OutcomeSwitchOff:
		return "switch_off"
	}
	return "unknown"
}

// Decision is the evaluator output for one actuator and one tick.
type Decision struct {
	Outcome Outcome
	Desired entities.ActuatorAction
	Changed bool
}

// Evaluate computes the next commanded state for an actuator of the given
// class. Pure: no I/O, no clock; the caller passes now (epoch seconds).
//
// Each class turns ON past its high/low trigger and may only turn OFF once
// the opposite bound clears; in between the previous state is held. OFF
// transitions are additionally gated by off_delay_sec measured from the last
// ON transition, so short-cycling is impossible even with noisy readings.
func Evaluate(class entities.ActuatorClass, r Readings, th entities.ThresholdSet, hst HysteresisState, now int64) (HysteresisState, Decision) {
	prev := hst.prev()

	var onCond, offCond, noData bool
	switch class {
	case entities.ClassFan:
		noData = r.T == nil && r.H == nil
		onCond = (r.T != nil && *r.T > th.THigh) || (r.H != nil && *r.H > th.HHigh)
		offCond = (r.T != nil && *r.T < th.TLow) && (r.H != nil && *r.H < th.HLow)
	case entities.ClassHeater:
		noData = r.T == nil
		onCond = r.T != nil && *r.T < th.TLow
		offCond = r.T != nil && *r.T > th.THigh
	case entities.ClassHumidifier:
		noData = r.H == nil
		onCond = r.H != nil && *r.H < th.HLow
		offCond = r.H != nil && *r.H > th.HHigh
	case entities.ClassDehumidifier:
		noData = r.H == nil
		onCond = r.H != nil && *r.H > th.HHigh
		offCond = r.H != nil && *r.H < th.HLow
	default:
		noData = true
	}

	if noData {
		return hst, Decision{Outcome: OutcomeNoData, Desired: prev}
	}

	switch {
	case onCond && prev != entities.ActionOn:
		hst.Commanded = entities.ActionOn
		hst.HasCommanded = true
		hst.LastOn = now
		return hst, Decision{Outcome: OutcomeSwitchOn, Desired: entities.ActionOn, Changed: true}

	case offCond && prev == entities.ActionOn:
		if float64(now-hst.LastOn) < th.OffDelaySec {
			return hst, Decision{Outcome: OutcomeHoldOffDelay, Desired: entities.ActionOn}
		}
		hst.Commanded = entities.ActionOff
		hst.HasCommanded = true
		hst.LastOff = now
		return hst, Decision{Outcome: OutcomeSwitchOff, Desired: entities.ActionOff, Changed: true}

	default:
		// In the band, or the active condition persists: hold.
		return hst, Decision{Outcome: OutcomeHold, Desired: prev}
	}
}

// ApplyOverride force-sets the hysteresis state after a manual command so
// that normal evaluation resumes from the overridden state on the next tick.
func ApplyOverride(hst HysteresisState, action entities.ActuatorAction, now int64) HysteresisState {
	hst.Commanded = action
	hst.HasCommanded = true
	if action == entities.ActionOn {
		hst.LastOn = now
	} else {
		hst.LastOff = now
	}
	return hst
}
