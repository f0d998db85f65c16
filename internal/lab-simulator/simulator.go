package lab_simulator

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/entities"
	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/messages"
	"github.com/sarasalimi77a-cpu/lab-t-h-control/pkg/mqttbus"
)

// LabSimulator publishes synthetic sensor readings for every lab in the
// topology and echoes actuator commands back as state feedback, standing in
// for the physical devices during local runs.
type LabSimulator struct {
	mu        sync.Mutex
	topo      *entities.Topology
	publisher mqttbus.IPublisher
	consumer  mqttbus.IConsumer
	interval  time.Duration

	envs   map[string]*EnvGenerator            // lab_id -> environment
	states map[string]entities.ActuatorAction // actuator_id -> state
}

func NewLabSimulator(topo *entities.Topology, publisher mqttbus.IPublisher, consumer mqttbus.IConsumer, interval time.Duration) *LabSimulator {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	s := &LabSimulator{
		topo:      topo,
		publisher: publisher,
		consumer:  consumer,
		interval:  interval,
		envs:      make(map[string]*EnvGenerator),
		states:    make(map[string]entities.ActuatorAction),
	}
	for i, lab := range topo.Labs() {
		s.envs[lab.ID] = NewEnvGenerator(time.Now().UnixNano() + int64(i))
		for _, aid := range lab.ActuatorIDs {
			s.states[aid] = entities.ActionOff
		}
	}
	consumer.SetHandler(s.onCommand)
	return s
}

// onCommand flips the simulated actuator and publishes feedback retained, so
// the controller's observed state follows its own commands.
func (s *LabSimulator) onCommand(topic string, msg mqtt.Message) error {
	labID, actuatorID, ok := messages.ParseActuatorCmdTopic(topic)
	if !ok {
		return nil
	}
	var cmd messages.Command
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		log.Printf("simulator: bad command payload on %s: %v", topic, err)
		return nil
	}
	if !cmd.Action.Valid() {
		return nil
	}
	if act, known := s.topo.Actuator(actuatorID); !known || act.LabID != labID {
		return nil
	}

	s.mu.Lock()
	s.states[actuatorID] = cmd.Action
	s.mu.Unlock()

	s.publishActuatorState(labID, actuatorID, cmd.Action)
	log.Printf("simulator: actuator %s/%s -> %s (source=%s)", labID, actuatorID, cmd.Action, cmd.Source)
	return nil
}

func (s *LabSimulator) publishActuatorState(labID, actuatorID string, state entities.ActuatorAction) {
	payload := messages.ActuatorState{ActuatorID: actuatorID, State: state, Ts: time.Now().Unix()}
	b, _ := json.Marshal(payload)
	if err := s.publisher.PublishTo(messages.ActuatorStateTopic(labID, actuatorID), 1, true, string(b)); err != nil {
		log.Printf("simulator: publish actuator state error: %v", err)
	}
}

// Run publishes initial OFF feedback for every actuator (so dashboards are
// not blank), then loops until the context is cancelled.
func (s *LabSimulator) Run(ctx context.Context) {
	go s.consumer.ConsumeMessage(ctx)

	for _, lab := range s.topo.Labs() {
		for _, aid := range lab.ActuatorIDs {
			s.publishActuatorState(lab.ID, aid, entities.ActionOff)
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.publishReadings()
		}
	}
}

func (s *LabSimulator) publishReadings() {
	now := time.Now().Unix()
	for _, lab := range s.topo.Labs() {
		s.mu.Lock()
		on := make(map[entities.ActuatorClass]bool)
		for _, act := range s.topo.ActuatorsOf(lab.ID) {
			if s.states[act.ID] == entities.ActionOn {
				on[act.Class] = true
			}
		}
		temp, hum := s.envs[lab.ID].Step(on)
		s.mu.Unlock()

		t := math.Round(temp*100) / 100
		h := math.Round(hum*100) / 100
		for _, sid := range lab.SensorIDs {
			payload := messages.SensorState{SensorID: sid, T: &t, H: &h, Ts: now}
			b, _ := json.Marshal(payload)
			if err := s.publisher.PublishTo(messages.SensorStateTopic(lab.ID, sid), 1, true, string(b)); err != nil {
				log.Printf("simulator: publish sensor state error: %v", err)
			}
		}
	}
}
