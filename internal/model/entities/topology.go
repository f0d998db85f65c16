package entities

import "fmt"

// Topology is the static lab/sensor/actuator map. It is built once at
// startup and shared read-only afterwards.
type Topology struct {
	labs      []Lab
	sensors   map[string]Sensor
	actuators map[string]Actuator
	byLab     map[string][]Actuator // lab_id -> actuators, catalog order
}

// NewTopology validates cross references and builds the lookup tables.
func NewTopology(labs []Lab, sensors []Sensor, actuators []Actuator) (*Topology, error) {
	t := &Topology{
		labs:      make([]Lab, 0, len(labs)),
		sensors:   make(map[string]Sensor, len(sensors)),
		actuators: make(map[string]Actuator, len(actuators)),
		byLab:     make(map[string][]Actuator, len(labs)),
	}

	seen := make(map[string]bool, len(labs))
	for _, lab := range labs {
		if lab.ID == "" {
			return nil, fmt.Errorf("topology: lab without id")
		}
		if seen[lab.ID] {
			return nil, fmt.Errorf("topology: duplicate lab id %q", lab.ID)
		}
		seen[lab.ID] = true
		if err := lab.Thresholds.Validate(); err != nil {
			return nil, fmt.Errorf("topology: lab %s: %w", lab.ID, err)
		}
		t.labs = append(t.labs, lab)
	}

	for _, s := range sensors {
		if s.ID == "" {
			return nil, fmt.Errorf("topology: sensor without id in lab %q", s.LabID)
		}
		if !seen[s.LabID] {
			return nil, fmt.Errorf("topology: sensor %s references unknown lab %q", s.ID, s.LabID)
		}
		if _, dup := t.sensors[s.ID]; dup {
			return nil, fmt.Errorf("topology: duplicate sensor id %q", s.ID)
		}
		t.sensors[s.ID] = s
	}

	for _, a := range actuators {
		if a.ID == "" {
			return nil, fmt.Errorf("topology: actuator without id in lab %q", a.LabID)
		}
		if !seen[a.LabID] {
			return nil, fmt.Errorf("topology: actuator %s references unknown lab %q", a.ID, a.LabID)
		}
		if !a.Class.Valid() {
			return nil, fmt.Errorf("topology: actuator %s has unknown class %q", a.ID, a.Class)
		}
		if _, dup := t.actuators[a.ID]; dup {
			return nil, fmt.Errorf("topology: duplicate actuator id %q", a.ID)
		}
		t.actuators[a.ID] = a
		t.byLab[a.LabID] = append(t.byLab[a.LabID], a)
	}

	return t, nil
}

// Labs returns the labs in catalog order.
func (t *Topology) Labs() []Lab { return t.labs }

func (t *Topology) Lab(id string) (Lab, bool) {
	for _, lab := range t.labs {
		if lab.ID == id {
			return lab, true
		}
	}
	return Lab{}, false
}

func (t *Topology) Sensor(id string) (Sensor, bool) {
	s, ok := t.sensors[id]
	return s, ok
}

func (t *Topology) Actuator(id string) (Actuator, bool) {
	a, ok := t.actuators[id]
	return a, ok
}

// ActuatorsOf returns the actuators of a lab in catalog order.
func (t *Topology) ActuatorsOf(labID string) []Actuator {
	return t.byLab[labID]
}
