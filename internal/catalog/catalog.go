// Package catalog loads the static lab/device/threshold configuration from
// the JSON catalog files and turns it into a validated topology.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/entities"
)

type labsFile struct {
	Labs []struct {
		LabID string `json:"lab_id"`
		Name  string `json:"name"`
	} `json:"labs"`
}

type devicesFile struct {
	Sensors []struct {
		SensorID string `json:"sensor_id"`
		LabID    string `json:"lab_id"`
		Type     string `json:"type"`
	} `json:"sensors"`
	Actuators []struct {
		ActuatorID string `json:"actuator_id"`
		LabID      string `json:"lab_id"`
		Type       string `json:"type"`
	} `json:"actuators"`
}

// thresholdPatch is a partial override: absent fields keep the base value.
type thresholdPatch struct {
	TLow        *float64 `json:"t_low"`
	THigh       *float64 `json:"t_high"`
	HLow        *float64 `json:"h_low"`
	HHigh       *float64 `json:"h_high"`
	OffDelaySec *float64 `json:"off_delay_sec"`
}

func (p thresholdPatch) apply(base entities.ThresholdSet) entities.ThresholdSet {
	if p.TLow != nil {
		base.TLow = *p.TLow
	}
	if p.THigh != nil {
		base.THigh = *p.THigh
	}
	if p.HLow != nil {
		base.HLow = *p.HLow
	}
	if p.HHigh != nil {
		base.HHigh = *p.HHigh
	}
	if p.OffDelaySec != nil {
		base.OffDelaySec = *p.OffDelaySec
	}
	return base
}

type thresholdsFile struct {
	Default thresholdPatch            `json:"default"`
	PerLab  map[string]thresholdPatch `json:"per_lab"`
}

func readJSON(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Load reads the three catalog files and returns the validated topology.
// Catalog errors are startup-fatal; nothing here is reloaded at runtime.
func Load(labsPath, devicesPath, thresholdsPath string) (*entities.Topology, error) {
	var lf labsFile
	if err := readJSON(labsPath, &lf); err != nil {
		return nil, fmt.Errorf("load labs: %w", err)
	}
	var df devicesFile
	if err := readJSON(devicesPath, &df); err != nil {
		return nil, fmt.Errorf("load devices: %w", err)
	}
	var tf thresholdsFile
	if err := readJSON(thresholdsPath, &tf); err != nil {
		return nil, fmt.Errorf("load thresholds: %w", err)
	}

	base := tf.Default.apply(entities.DefaultThresholds())

	sensorsByLab := make(map[string][]string)
	sensors := make([]entities.Sensor, 0, len(df.Sensors))
	for _, s := range df.Sensors {
		sensors = append(sensors, entities.Sensor{ID: s.SensorID, LabID: s.LabID, Kind: s.Type})
		sensorsByLab[s.LabID] = append(sensorsByLab[s.LabID], s.SensorID)
	}

	actuatorsByLab := make(map[string][]string)
	actuators := make([]entities.Actuator, 0, len(df.Actuators))
	for _, a := range df.Actuators {
		actuators = append(actuators, entities.Actuator{
			ID:    a.ActuatorID,
			LabID: a.LabID,
			Class: entities.ActuatorClass(a.Type),
		})
		actuatorsByLab[a.LabID] = append(actuatorsByLab[a.LabID], a.ActuatorID)
	}

	labs := make([]entities.Lab, 0, len(lf.Labs))
	for _, l := range lf.Labs {
		th := base
		if patch, ok := tf.PerLab[l.LabID]; ok {
			th = patch.apply(base)
		}
		labs = append(labs, entities.Lab{
			ID:          l.LabID,
			Name:        l.Name,
			SensorIDs:   sensorsByLab[l.LabID],
			ActuatorIDs: actuatorsByLab[l.LabID],
			Thresholds:  th,
		})
	}

	return entities.NewTopology(labs, sensors, actuators)
}
