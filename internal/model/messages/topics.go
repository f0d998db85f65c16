package messages

import (
	"fmt"
	"regexp"
)

// Subscription patterns used by the control engine and the simulator.
const (
	SensorStateSub   = "labs/+/sensors/+/state"
	ActuatorStateSub = "labs/+/actuators/+/state"
	ActuatorCmdSub   = "labs/+/actuators/+/cmd"
)

var (
	sensorStateRe   = regexp.MustCompile(`^labs/([^/]+)/sensors/([^/]+)/state$`)
	actuatorStateRe = regexp.MustCompile(`^labs/([^/]+)/actuators/([^/]+)/state$`)
	actuatorCmdRe   = regexp.MustCompile(`^labs/([^/]+)/actuators/([^/]+)/cmd$`)
)

func SensorStateTopic(labID, sensorID string) string {
	return fmt.Sprintf("labs/%s/sensors/%s/state", labID, sensorID)
}

func ActuatorStateTopic(labID, actuatorID string) string {
	return fmt.Sprintf("labs/%s/actuators/%s/state", labID, actuatorID)
}

func ActuatorCmdTopic(labID, actuatorID string) string {
	return fmt.Sprintf("labs/%s/actuators/%s/cmd", labID, actuatorID)
}

func ParseSensorStateTopic(topic string) (labID, sensorID string, ok bool) {
	m := sensorStateRe.FindStringSubmatch(topic)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func ParseActuatorStateTopic(topic string) (labID, actuatorID string, ok bool) {
	m := actuatorStateRe.FindStringSubmatch(topic)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func ParseActuatorCmdTopic(topic string) (labID, actuatorID string, ok bool) {
	m := actuatorCmdRe.FindStringSubmatch(topic)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
