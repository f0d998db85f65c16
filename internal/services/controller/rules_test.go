package controller

import (
	"testing"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/entities"
)

func fp(v float64) *float64 { return &v }

func testThresholds() entities.ThresholdSet {
	return entities.ThresholdSet{TLow: 25, THigh: 30, HLow: 60, HHigh: 70, OffDelaySec: 60}
}

func TestFanSwitchesOnAboveHighThreshold(t *testing.T) {
	th := testThresholds()

	cases := []struct {
		name string
		r    Readings
	}{
		{"hot", Readings{T: fp(31), H: fp(50)}},
		{"humid", Readings{T: fp(26), H: fp(71)}},
		{"hot only temp known", Readings{T: fp(31)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hst, dec := Evaluate(entities.ClassFan, tc.r, th, HysteresisState{}, 1000)
			if dec.Outcome != OutcomeSwitchOn || dec.Desired != entities.ActionOn || !dec.Changed {
				t.Fatalf("expected switch-on, got %+v", dec)
			}
			if hst.Commanded != entities.ActionOn || hst.LastOn != 1000 {
				t.Fatalf("hysteresis state not advanced: %+v", hst)
			}
		})
	}
}

func TestFanOffGatedByOffDelay(t *testing.T) {
	th := testThresholds()

	// t=31 turns the fan on
	hst, dec := Evaluate(entities.ClassFan, Readings{T: fp(31), H: fp(50)}, th, HysteresisState{}, 1000)
	if dec.Outcome != OutcomeSwitchOn {
		t.Fatalf("expected switch-on, got %+v", dec)
	}

	// both metrics clear the low bounds 30s later: still ON, gated
	hst, dec = Evaluate(entities.ClassFan, Readings{T: fp(24), H: fp(50)}, th, hst, 1030)
	if dec.Outcome != OutcomeHoldOffDelay || dec.Desired != entities.ActionOn || dec.Changed {
		t.Fatalf("expected off-delay hold, got %+v", dec)
	}
	if hst.Commanded != entities.ActionOn {
		t.Fatalf("gated hold must not change commanded state: %+v", hst)
	}

	// off_delay elapsed with sustained lows: OFF
	hst, dec = Evaluate(entities.ClassFan, Readings{T: fp(24), H: fp(50)}, th, hst, 1060)
	if dec.Outcome != OutcomeSwitchOff || dec.Desired != entities.ActionOff || !dec.Changed {
		t.Fatalf("expected switch-off after delay, got %+v", dec)
	}
	if hst.Commanded != entities.ActionOff || hst.LastOff != 1060 {
		t.Fatalf("hysteresis state not advanced: %+v", hst)
	}
}

func TestFanOffRequiresBothMetricsClear(t *testing.T) {
	th := testThresholds()
	hst := HysteresisState{Commanded: entities.ActionOn, HasCommanded: true, LastOn: 0}

	// temperature clear, humidity still in the band: hold ON forever
	_, dec := Evaluate(entities.ClassFan, Readings{T: fp(24), H: fp(65)}, th, hst, 10_000)
	if dec.Outcome != OutcomeHold || dec.Desired != entities.ActionOn {
		t.Fatalf("expected band hold ON, got %+v", dec)
	}
}

func TestHysteresisBandNeverChangesState(t *testing.T) {
	th := testThresholds()
	inBand := Readings{T: fp(27), H: fp(65)}

	for _, prev := range []entities.ActuatorAction{entities.ActionOn, entities.ActionOff} {
		hst := HysteresisState{Commanded: prev, HasCommanded: true}
		for i := 0; i < 50; i++ {
			var dec Decision
			hst, dec = Evaluate(entities.ClassFan, inBand, th, hst, int64(2000+i))
			if dec.Changed || dec.Desired != prev {
				t.Fatalf("in-band tick %d flipped state from %s: %+v", i, prev, dec)
			}
		}
	}
}

func TestNoDataHoldsAndIsDistinguishable(t *testing.T) {
	th := testThresholds()
	hst := HysteresisState{Commanded: entities.ActionOn, HasCommanded: true}

	next, dec := Evaluate(entities.ClassFan, Readings{}, th, hst, 5000)
	if dec.Outcome != OutcomeNoData || dec.Changed {
		t.Fatalf("expected no-data hold, got %+v", dec)
	}
	if dec.Desired != entities.ActionOn {
		t.Fatalf("no-data must keep previous state, got %s", dec.Desired)
	}
	if next != hst {
		t.Fatalf("no-data must not touch hysteresis state")
	}

	// heater only cares about temperature
	_, dec = Evaluate(entities.ClassHeater, Readings{H: fp(80)}, th, HysteresisState{}, 5000)
	if dec.Outcome != OutcomeNoData {
		t.Fatalf("heater without temperature must report no data, got %+v", dec)
	}
}

func TestHeaterRule(t *testing.T) {
	th := testThresholds()

	hst, dec := Evaluate(entities.ClassHeater, Readings{T: fp(20)}, th, HysteresisState{}, 100)
	if dec.Outcome != OutcomeSwitchOn {
		t.Fatalf("cold room must switch heater on, got %+v", dec)
	}

	// too hot, but inside the minimum-on window: gated
	_, dec = Evaluate(entities.ClassHeater, Readings{T: fp(31)}, th, hst, 130)
	if dec.Outcome != OutcomeHoldOffDelay {
		t.Fatalf("expected gated off, got %+v", dec)
	}

	_, dec = Evaluate(entities.ClassHeater, Readings{T: fp(31)}, th, hst, 200)
	if dec.Outcome != OutcomeSwitchOff {
		t.Fatalf("expected switch-off, got %+v", dec)
	}
}

func TestHumidifierAndDehumidifierRules(t *testing.T) {
	th := testThresholds()

	cases := []struct {
		name    string
		class   entities.ActuatorClass
		r       Readings
		prev    entities.ActuatorAction
		outcome Outcome
	}{
		{"humidifier on when dry", entities.ClassHumidifier, Readings{H: fp(30)}, entities.ActionOff, OutcomeSwitchOn},
		{"humidifier holds in band", entities.ClassHumidifier, Readings{H: fp(65)}, entities.ActionOn, OutcomeHold},
		{"dehumidifier on when wet", entities.ClassDehumidifier, Readings{H: fp(80)}, entities.ActionOff, OutcomeSwitchOn},
		{"dehumidifier holds in band", entities.ClassDehumidifier, Readings{H: fp(65)}, entities.ActionOn, OutcomeHold},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hst := HysteresisState{Commanded: tc.prev, HasCommanded: true, LastOn: -1000}
			_, dec := Evaluate(tc.class, tc.r, th, hst, 100)
			if dec.Outcome != tc.outcome {
				t.Fatalf("expected %s, got %+v", tc.outcome, dec)
			}
		})
	}
}

func TestApplyOverrideResumesEvaluation(t *testing.T) {
	th := testThresholds()

	// manual ON inside the band: next evaluation holds it there
	hst := ApplyOverride(HysteresisState{}, entities.ActionOn, 500)
	_, dec := Evaluate(entities.ClassFan, Readings{T: fp(27), H: fp(65)}, th, hst, 502)
	if dec.Changed || dec.Desired != entities.ActionOn {
		t.Fatalf("override must not be reverted inside the band: %+v", dec)
	}

	// manual ON with lows cleared: OFF only after the off-delay
	_, dec = Evaluate(entities.ClassFan, Readings{T: fp(20), H: fp(30)}, th, hst, 510)
	if dec.Outcome != OutcomeHoldOffDelay {
		t.Fatalf("override ON must respect off-delay gating: %+v", dec)
	}
	_, dec = Evaluate(entities.ClassFan, Readings{T: fp(20), H: fp(30)}, th, hst, 600)
	if dec.Outcome != OutcomeSwitchOff {
		t.Fatalf("expected switch-off after delay, got %+v", dec)
	}
}
