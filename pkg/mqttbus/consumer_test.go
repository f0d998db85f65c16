package mqttbus

import "testing"

func TestQosForDeviceStateTopics(t *testing.T) {
	cases := []struct {
		topic string
		want  byte
	}{
		{"labs/+/sensors/+/state", 1},
		{"labs/lab1/actuators/fan1/state", 1},
		{"labs/+/actuators/+/cmd", 0},
		{"other/topic", 0},
	}
	for _, c := range cases {
		if got := qosFor(c.topic); got != c.want {
			t.Fatalf("qosFor(%q) = %d, want %d", c.topic, got, c.want)
		}
	}
}
