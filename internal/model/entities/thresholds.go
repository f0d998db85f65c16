package entities

import "fmt"

// ThresholdSet holds the hysteresis band per metric plus the minimum time an
// actuator must stay ON before an OFF transition may be emitted.
type ThresholdSet struct {
	TLow        float64 `json:"t_low"`
	THigh       float64 `json:"t_high"`
	HLow        float64 `json:"h_low"`
	HHigh       float64 `json:"h_high"`
	OffDelaySec float64 `json:"off_delay_sec"`
}

// DefaultThresholds mirrors the catalog defaults shipped with the system.
func DefaultThresholds() ThresholdSet {
	return ThresholdSet{
		TLow:        26.5,
		THigh:       28.0,
		HLow:        40.0,
		HHigh:       70.0,
		OffDelaySec: 60,
	}
}

func (t ThresholdSet) Validate() error {
	if t.TLow >= t.THigh {
		return fmt.Errorf("thresholds: t_low (%.2f) must be < t_high (%.2f)", t.TLow, t.THigh)
	}
	if t.HLow >= t.HHigh {
		return fmt.Errorf("thresholds: h_low (%.2f) must be < h_high (%.2f)", t.HLow, t.HHigh)
	}
	if t.OffDelaySec < 0 {
		return fmt.Errorf("thresholds: off_delay_sec (%.2f) must be >= 0", t.OffDelaySec)
	}
	return nil
}
