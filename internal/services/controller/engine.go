package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model"
	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/entities"
	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/messages"
	"github.com/sarasalimi77a-cpu/lab-t-h-control/pkg/mqttbus"
)

// SourceController marks commands produced by rule evaluation.
const SourceController = "controller"

type inboundKind int

const (
	inboundSensor inboundKind = iota
	inboundActuator
)

// inbound is a parsed, validated message waiting in the ingest buffer.
type inbound struct {
	kind     inboundKind
	labID    string
	sensor   messages.SensorState
	actuator messages.ActuatorState
}

type override struct {
	labID      string
	actuatorID string
	action     entities.ActuatorAction
	source     string
}

// emission is a command intent computed during a tick. Intents are computed
// first and published after every lock is released, so a slow broker never
// blocks ingestion or snapshot readers.
type emission struct {
	labID      string
	actuatorID string
	action     entities.ActuatorAction
	source     string
	manual     bool
}

// Config carries the startup knobs for the engine. Everything arrives
// already validated.
type Config struct {
	TickInterval  time.Duration
	SensorTimeout time.Duration
	IngestBuffer  int
}

// Engine is the control loop: it drains the ingest buffer into the state
// table, flags stale sensors, evaluates the rules per lab and publishes
// actuator commands. One Engine instance owns the state table and the
// hysteresis memory; nothing else mutates them.
type Engine struct {
	topo      *entities.Topology
	state     *StateTable
	publisher mqttbus.IPublisher
	metrics   *Metrics

	tick          time.Duration
	sensorTimeout time.Duration
	now           func() time.Time

	ingest chan inbound

	overrideMu sync.Mutex
	overrides  []override

	// loop-owned, touched only from Run/tickOnce
	hst         map[string]HysteresisState
	lastEmitted map[string]entities.ActuatorAction

	healthMu       sync.RWMutex
	lastPublishErr time.Time
}

func NewEngine(topo *entities.Topology, state *StateTable, pub mqttbus.IPublisher, metrics *Metrics, cfg Config) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 2 * time.Second
	}
	if cfg.SensorTimeout <= 0 {
		cfg.SensorTimeout = 60 * time.Second
	}
	if cfg.IngestBuffer <= 0 {
		cfg.IngestBuffer = 1024
	}
	return &Engine{
		topo:          topo,
		state:         state,
		publisher:     pub,
		metrics:       metrics,
		tick:          cfg.TickInterval,
		sensorTimeout: cfg.SensorTimeout,
		now:           time.Now,
		ingest:        make(chan inbound, cfg.IngestBuffer),
		hst:           make(map[string]HysteresisState),
		lastEmitted:   make(map[string]entities.ActuatorAction),
		// old enough that a fresh process reports healthy
		lastPublishErr: time.Now().Add(-24 * time.Hour),
	}
}

// Snapshot is the read-only query surface for external aggregators.
func (e *Engine) Snapshot() model.Snapshot { return e.state.Snapshot() }

// State exposes the table for the HTTP layer's per-lab reads.
func (e *Engine) State() *StateTable { return e.state }

// Offer hands an inbound message to the loop without ever blocking the
// caller. When the buffer is full the oldest message is dropped and counted;
// sensors republish frequently so the loss is acceptable but never silent.
func (e *Engine) Offer(m inbound) {
	select {
	case e.ingest <- m:
		return
	default:
	}
	select {
	case <-e.ingest:
		e.metrics.IngestDropped.Inc()
	default:
	}
	select {
	case e.ingest <- m:
	default:
		e.metrics.IngestDropped.Inc()
	}
}

// Override injects a manual command intent that bypasses rule evaluation for
// one cycle. Normal control resumes on the next tick from the overridden
// state.
func (e *Engine) Override(labID, actuatorID string, action entities.ActuatorAction, source string) error {
	if !action.Valid() {
		return fmt.Errorf("override: invalid action %q", action)
	}
	act, ok := e.topo.Actuator(actuatorID)
	if !ok || act.LabID != labID {
		return fmt.Errorf("override: unknown actuator %q in lab %q", actuatorID, labID)
	}
	if source == "" {
		source = "ui"
	}
	e.overrideMu.Lock()
	e.overrides = append(e.overrides, override{labID: labID, actuatorID: actuatorID, action: action, source: source})
	e.overrideMu.Unlock()
	return nil
}

// PublishErrorAge reports how long ago the last command publish failed; the
// health endpoint uses it to surface a degraded transport.
func (e *Engine) PublishErrorAge() time.Duration {
	e.healthMu.RLock()
	t := e.lastPublishErr
	e.healthMu.RUnlock()
	return time.Since(t)
}

func (e *Engine) notePublishError() {
	e.healthMu.Lock()
	e.lastPublishErr = time.Now()
	e.healthMu.Unlock()
}

// Run drives the loop until ctx is cancelled. On shutdown the buffered
// messages are drained into the state table and pending intents are emitted
// before returning, so nothing is abandoned mid-publish.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	log.Printf("engine: control loop started tick=%s sensor_timeout=%s", e.tick, e.sensorTimeout)

	for {
		select {
		case <-ctx.Done():
			e.tickOnce()
			log.Println("engine: control loop stopped")
			return
		case <-ticker.C:
			e.tickOnce()
		}
	}
}

// tickOnce runs one full control cycle.
func (e *Engine) tickOnce() {
	started := e.now()
	nowTs := started.Unix()

	e.drainInbound()

	offline := e.state.MarkOfflineIfStale(nowTs, int64(e.sensorTimeout.Seconds()))
	e.metrics.SensorsOffline.Set(float64(offline))

	emissions := e.evaluate(nowTs)
	e.emit(emissions, nowTs)

	e.metrics.TicksTotal.Inc()
	e.metrics.TickDuration.Set(e.now().Sub(started).Seconds())
}

// drainInbound applies every buffered message to the state table. Staleness
// rejections are not errors; unknown devices were filtered at the bridge.
func (e *Engine) drainInbound() {
	for {
		select {
		case m := <-e.ingest:
			var err error
			switch m.kind {
			case inboundSensor:
				_, err = e.state.UpdateSensorReading(m.labID, m.sensor)
			case inboundActuator:
				_, err = e.state.UpdateActuatorFeedback(m.labID, m.actuator)
			}
			if err != nil {
				e.metrics.UnknownDevices.Inc()
				log.Printf("engine: dropped message: %v", err)
			}
		default:
			return
		}
	}
}

// evaluate computes the command intents for this tick. Manual overrides win
// over rule output for their actuator; each override is consumed exactly
// once. No publishing happens here.
func (e *Engine) evaluate(nowTs int64) []emission {
	e.overrideMu.Lock()
	pending := e.overrides
	e.overrides = nil
	e.overrideMu.Unlock()

	overridden := make(map[string]bool, len(pending))
	var out []emission
	for _, ov := range pending {
		overridden[ov.actuatorID] = true
		e.hst[ov.actuatorID] = ApplyOverride(e.hst[ov.actuatorID], ov.action, nowTs)
		out = append(out, emission{
			labID:      ov.labID,
			actuatorID: ov.actuatorID,
			action:     ov.action,
			source:     ov.source,
			manual:     true,
		})
	}

	// A lab whose sensors all went silent simply yields no-data holds;
	// the remaining labs keep being controlled.
	for _, lab := range e.topo.Labs() {
		agg := e.state.Aggregate(lab.ID)
		for _, act := range e.topo.ActuatorsOf(lab.ID) {
			if overridden[act.ID] {
				continue
			}
			next, dec := Evaluate(act.Class, agg, lab.Thresholds, e.hst[act.ID], nowTs)
			e.hst[act.ID] = next

			if dec.Outcome == OutcomeNoData {
				continue
			}
			if last, ok := e.lastEmitted[act.ID]; ok && last == dec.Desired {
				continue
			}
			out = append(out, emission{
				labID:      lab.ID,
				actuatorID: act.ID,
				action:     dec.Desired,
				source:     SourceController,
			})
			log.Printf("engine: decision lab=%s actuator=%s class=%s outcome=%s action=%s",
				lab.ID, act.ID, act.Class, dec.Outcome, dec.Desired)
		}
	}
	return out
}

// emit publishes intents outside every lock. A failed publish keeps
// lastEmitted unchanged so the same intent is retried on the next tick.
func (e *Engine) emit(emissions []emission, nowTs int64) {
	for _, em := range emissions {
		cmd := messages.Command{Action: em.action, Source: em.source, Ts: nowTs}
		b, _ := json.Marshal(cmd)
		topic := messages.ActuatorCmdTopic(em.labID, em.actuatorID)

		if err := e.publisher.PublishTo(topic, 1, true, string(b)); err != nil {
			e.metrics.PublishErrors.Inc()
			e.notePublishError()
			log.Printf("engine: publish error topic=%s: %v", topic, err)
			continue
		}
		e.lastEmitted[em.actuatorID] = em.action
		e.state.RecordCommand(em.labID, em.actuatorID, em.action, em.source, nowTs)
		e.metrics.CommandsPublished.Inc()
		log.Printf("engine: command lab=%s actuator=%s action=%s source=%s", em.labID, em.actuatorID, em.action, em.source)
	}
}
