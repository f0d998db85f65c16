package uplink

import (
	"encoding/json"
	"fmt"
	"os"
)

// FieldMapping binds one ThingSpeak channel field to a sensor metric.
type FieldMapping struct {
	SensorID string `json:"sensor_id"`
	Metric   string `json:"metric"` // "t" or "h"
	APIKey   string `json:"api_key,omitempty"`
}

type Channel struct {
	Name   string                  `json:"name"`
	APIKey string                  `json:"api_key"`
	Fields map[string]FieldMapping `json:"fields"` // "field1" -> mapping
}

type Config struct {
	Channels []Channel `json:"channels"`
}

// LoadConfig reads the keys file; a missing file yields an empty config so
// the adaptor idles instead of failing.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
