package controller

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/messages"
	"github.com/sarasalimi77a-cpu/lab-t-h-control/pkg/dedup"
)

// Bridge validates inbound bus traffic and feeds it to the engine. Anything
// malformed or referencing an unknown device is counted and dropped here;
// one bad sensor never disturbs the rest of the system.
type Bridge struct {
	engine  *Engine
	metrics *Metrics
	deduper *dedup.Deduper
}

func NewBridge(engine *Engine, metrics *Metrics) *Bridge {
	return &Bridge{
		engine:  engine,
		metrics: metrics,
		deduper: dedup.New(10*time.Minute, 20000),
	}
}

// HandleMessage is the shared handler for both inbound topic families.
// It always returns nil: per-message faults are not consumer errors.
func (b *Bridge) HandleMessage(topic string, msg mqtt.Message) error {
	// dedup before unmarshal: QoS1 redeliveries are byte-identical
	sum := sha256.Sum256(append([]byte(topic+"\x00"), msg.Payload()...))
	if !b.deduper.ShouldProcess(hex.EncodeToString(sum[:])) {
		b.metrics.DuplicateDropped.Inc()
		return nil
	}

	if labID, sensorID, ok := messages.ParseSensorStateTopic(topic); ok {
		b.handleSensor(labID, sensorID, msg.Payload())
		return nil
	}
	if labID, actuatorID, ok := messages.ParseActuatorStateTopic(topic); ok {
		b.handleActuator(labID, actuatorID, msg.Payload())
		return nil
	}

	b.metrics.MalformedPayloads.Inc()
	log.Printf("bridge: unexpected topic %s", topic)
	return nil
}

func (b *Bridge) handleSensor(labID, sensorID string, payload []byte) {
	var m messages.SensorState
	if err := json.Unmarshal(payload, &m); err != nil {
		b.metrics.MalformedPayloads.Inc()
		log.Printf("bridge: bad sensor payload lab=%s sensor=%s: %v", labID, sensorID, err)
		return
	}
	if m.SensorID == "" {
		m.SensorID = sensorID
	}
	if err := m.Validate(); err != nil {
		b.metrics.MalformedPayloads.Inc()
		log.Printf("bridge: invalid sensor state lab=%s sensor=%s: %v", labID, sensorID, err)
		return
	}
	if m.SensorID != sensorID {
		b.metrics.MalformedPayloads.Inc()
		log.Printf("bridge: sensor_id %q does not match topic sensor %q", m.SensorID, sensorID)
		return
	}

	sensor, ok := b.engine.topo.Sensor(sensorID)
	if !ok || sensor.LabID != labID {
		b.metrics.UnknownDevices.Inc()
		log.Printf("bridge: unknown sensor %s/%s", labID, sensorID)
		return
	}

	b.engine.Offer(inbound{kind: inboundSensor, labID: labID, sensor: m})
}

func (b *Bridge) handleActuator(labID, actuatorID string, payload []byte) {
	var m messages.ActuatorState
	if err := json.Unmarshal(payload, &m); err != nil {
		b.metrics.MalformedPayloads.Inc()
		log.Printf("bridge: bad actuator payload lab=%s actuator=%s: %v", labID, actuatorID, err)
		return
	}
	if m.ActuatorID == "" {
		m.ActuatorID = actuatorID
	}
	if err := m.Validate(); err != nil {
		b.metrics.MalformedPayloads.Inc()
		log.Printf("bridge: invalid actuator state lab=%s actuator=%s: %v", labID, actuatorID, err)
		return
	}
	if m.ActuatorID != actuatorID {
		b.metrics.MalformedPayloads.Inc()
		log.Printf("bridge: actuator_id %q does not match topic actuator %q", m.ActuatorID, actuatorID)
		return
	}

	act, ok := b.engine.topo.Actuator(actuatorID)
	if !ok || act.LabID != labID {
		b.metrics.UnknownDevices.Inc()
		log.Printf("bridge: unknown actuator %s/%s", labID, actuatorID)
		return
	}

	b.engine.Offer(inbound{kind: inboundActuator, labID: labID, actuator: m})
}
