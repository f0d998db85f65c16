package controller

import (
	"fmt"
	"sync"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model"
	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/entities"
	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/messages"
)

// sensorSlot keeps the latest reading seen for one sensor. Values are stored
// flat (no shared pointers) so snapshots can be handed out safely.
type sensorSlot struct {
	hasReading bool
	t, h       float64
	hasT, hasH bool
	ts         int64
	offline    bool
}

type actuatorSlot struct {
	hasObserved bool
	observed    entities.ActuatorAction
	observedTs  int64

	hasCommand bool
	command    entities.ActuatorAction
	cmdSource  string
	cmdTs      int64
}

type labState struct {
	sensors   map[string]*sensorSlot
	actuators map[string]*actuatorSlot
}

// StateTable is the live in-memory model: latest sensor readings and
// actuator states per lab. Single-writer (the control loop plus the
// ingestion drain it performs), multiple snapshot readers.
type StateTable struct {
	mu   sync.RWMutex
	topo *entities.Topology
	labs map[string]*labState
}

func NewStateTable(topo *entities.Topology) *StateTable {
	st := &StateTable{
		topo: topo,
		labs: make(map[string]*labState),
	}
	for _, lab := range topo.Labs() {
		ls := &labState{
			sensors:   make(map[string]*sensorSlot, len(lab.SensorIDs)),
			actuators: make(map[string]*actuatorSlot, len(lab.ActuatorIDs)),
		}
		for _, sid := range lab.SensorIDs {
			ls.sensors[sid] = &sensorSlot{}
		}
		for _, aid := range lab.ActuatorIDs {
			ls.actuators[aid] = &actuatorSlot{}
		}
		st.labs[lab.ID] = ls
	}
	return st
}

// UpdateSensorReading upserts the reading for a sensor. A reading older than
// the stored one is ignored (out-of-order/duplicate delivery), reported via
// applied=false. A fresh reading clears the offline flag.
func (st *StateTable) UpdateSensorReading(labID string, m messages.SensorState) (applied bool, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	ls, ok := st.labs[labID]
	if !ok {
		return false, fmt.Errorf("state: unknown lab %q", labID)
	}
	slot, ok := ls.sensors[m.SensorID]
	if !ok {
		return false, fmt.Errorf("state: unknown sensor %q in lab %q", m.SensorID, labID)
	}
	if slot.hasReading && m.Ts < slot.ts {
		return false, nil
	}

	slot.hasReading = true
	slot.ts = m.Ts
	slot.hasT, slot.hasH = false, false
	if m.T != nil {
		slot.t, slot.hasT = *m.T, true
	}
	if m.H != nil {
		slot.h, slot.hasH = *m.H, true
	}
	slot.offline = false
	return true, nil
}

// UpdateActuatorFeedback upserts the observed state reported by the actuator
// itself, with the same staleness rule as sensor readings.
func (st *StateTable) UpdateActuatorFeedback(labID string, m messages.ActuatorState) (applied bool, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	ls, ok := st.labs[labID]
	if !ok {
		return false, fmt.Errorf("state: unknown lab %q", labID)
	}
	slot, ok := ls.actuators[m.ActuatorID]
	if !ok {
		return false, fmt.Errorf("state: unknown actuator %q in lab %q", m.ActuatorID, labID)
	}
	if slot.hasObserved && m.Ts < slot.observedTs {
		return false, nil
	}

	slot.hasObserved = true
	slot.observed = m.State
	slot.observedTs = m.Ts
	return true, nil
}

// RecordCommand books the last emitted command intent for an actuator. The
// observed state is deliberately left untouched; only feedback moves it.
func (st *StateTable) RecordCommand(labID, actuatorID string, action entities.ActuatorAction, source string, ts int64) {
	st.mu.Lock()
	defer st.mu.Unlock()

	ls, ok := st.labs[labID]
	if !ok {
		return
	}
	slot, ok := ls.actuators[actuatorID]
	if !ok {
		return
	}
	slot.hasCommand = true
	slot.command = action
	slot.cmdSource = source
	slot.cmdTs = ts
}

// MarkOfflineIfStale flags every sensor whose last reading is older than
// timeoutSec. The reading itself is kept. Returns how many sensors are
// currently offline.
func (st *StateTable) MarkOfflineIfStale(nowTs, timeoutSec int64) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	offline := 0
	for _, ls := range st.labs {
		for _, slot := range ls.sensors {
			if slot.hasReading && nowTs-slot.ts > timeoutSec {
				slot.offline = true
			}
			if slot.offline {
				offline++
			}
		}
	}
	return offline
}

// Aggregate returns the maximum temperature and humidity seen across the
// lab's sensors that have data and are not offline. A nil pointer means the
// metric is unavailable in this lab right now.
func (st *StateTable) Aggregate(labID string) Readings {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var r Readings
	ls, ok := st.labs[labID]
	if !ok {
		return r
	}
	for _, slot := range ls.sensors {
		if !slot.hasReading || slot.offline {
			continue
		}
		if slot.hasT && (r.T == nil || slot.t > *r.T) {
			v := slot.t
			r.T = &v
		}
		if slot.hasH && (r.H == nil || slot.h > *r.H) {
			v := slot.h
			r.H = &v
		}
	}
	return r
}

// LabSnapshot returns a copy-on-read view of one lab. The copy shares no
// memory with the table.
func (st *StateTable) LabSnapshot(labID string) (model.LabView, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	lab, ok := st.topo.Lab(labID)
	if !ok {
		return model.LabView{}, false
	}
	return st.labViewLocked(lab), true
}

// Snapshot returns a copy-on-read view of every lab. Labs are consistent
// internally: the read lock spans the whole projection, so a concurrent tick
// is visible either entirely or not at all.
func (st *StateTable) Snapshot() model.Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()

	snap := model.Snapshot{Labs: make([]model.LabView, 0, len(st.labs))}
	for _, lab := range st.topo.Labs() {
		snap.Labs = append(snap.Labs, st.labViewLocked(lab))
	}
	return snap
}

func (st *StateTable) labViewLocked(lab entities.Lab) model.LabView {
	view := model.LabView{
		LabID:      lab.ID,
		Name:       lab.Name,
		Thresholds: lab.Thresholds,
		Sensors:    make([]model.SensorView, 0, len(lab.SensorIDs)),
		Actuators:  make([]model.ActuatorView, 0, len(lab.ActuatorIDs)),
	}
	ls := st.labs[lab.ID]

	for _, sid := range lab.SensorIDs {
		sv := model.SensorView{SensorID: sid, LabID: lab.ID}
		if slot := ls.sensors[sid]; slot != nil && slot.hasReading {
			reading := &model.Reading{Ts: slot.ts}
			if slot.hasT {
				v := slot.t
				reading.T = &v
			}
			if slot.hasH {
				v := slot.h
				reading.H = &v
			}
			sv.Reading = reading
			sv.Offline = slot.offline
		}
		if sv.Offline {
			view.Alerts.SensorOffline = true
		}
		view.Sensors = append(view.Sensors, sv)
	}

	for _, aid := range lab.ActuatorIDs {
		act, _ := st.topo.Actuator(aid)
		av := model.ActuatorView{ActuatorID: aid, Class: act.Class}
		if slot := ls.actuators[aid]; slot != nil {
			if slot.hasObserved {
				av.Observed = &model.ObservedState{State: slot.observed, Ts: slot.observedTs}
			}
			if slot.hasCommand {
				av.LastCommand = &model.CommandView{Action: slot.command, Source: slot.cmdSource, Ts: slot.cmdTs}
			}
		}
		view.Actuators = append(view.Actuators, av)
	}

	return view
}
