// Package uplink polls the controller snapshot and pushes mapped sensor
// values to ThingSpeak channels.
package uplink

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model"
)

// Adaptor is the cloud uplink worker. Both upstreams (controller snapshot
// and ThingSpeak) sit behind circuit breakers; a tripped breaker skips the
// cycle instead of hammering a dead endpoint.
type Adaptor struct {
	controllerURL string
	updateURL     string
	cfg           Config
	client        *http.Client
	interval      time.Duration

	fetchBreaker *gobreaker.CircuitBreaker
	postBreaker  *gobreaker.CircuitBreaker
}

func NewAdaptor(controllerURL, updateURL string, cfg Config, interval time.Duration, timeout time.Duration) *Adaptor {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("uplink: breaker %s %s -> %s", name, from, to)
			},
		}
	}
	return &Adaptor{
		controllerURL: strings.TrimRight(controllerURL, "/"),
		updateURL:     updateURL,
		cfg:           cfg,
		client:        &http.Client{Timeout: timeout},
		interval:      interval,
		fetchBreaker:  gobreaker.NewCircuitBreaker(settings("snapshot-fetch")),
		postBreaker:   gobreaker.NewCircuitBreaker(settings("thingspeak-post")),
	}
}

// Run loops until the context is cancelled.
func (a *Adaptor) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.RunOnce(ctx); err != nil {
				log.Printf("uplink: cycle error: %v", err)
			}
		}
	}
}

// RunOnce performs a single poll-and-upload cycle.
func (a *Adaptor) RunOnce(ctx context.Context) error {
	snap, err := a.fetchSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	lookup := buildSensorLookup(snap)

	for _, chann := range a.cfg.Channels {
		form := url.Values{}
		apiKey := chann.APIKey
		for fieldName, mapping := range chann.Fields {
			num, err := fieldNumber(fieldName)
			if err != nil {
				log.Printf("uplink: channel %s: %v", chann.Name, err)
				continue
			}
			if mapping.APIKey != "" {
				apiKey = mapping.APIKey
			}
			sv, ok := lookup[mapping.SensorID]
			if !ok || sv.Reading == nil || sv.Offline {
				continue
			}
			var v *float64
			switch mapping.Metric {
			case "h":
				v = sv.Reading.H
			default:
				v = sv.Reading.T
			}
			if v == nil {
				continue
			}
			form.Set(fmt.Sprintf("field%d", num), fmt.Sprintf("%.2f", *v))
		}
		if apiKey == "" || len(form) == 0 {
			continue
		}
		form.Set("api_key", apiKey)
		if err := a.postUpdate(ctx, chann.Name, form); err != nil {
			log.Printf("uplink: channel %s post failed: %v", chann.Name, err)
		}
	}
	return nil
}

func (a *Adaptor) fetchSnapshot(ctx context.Context) (model.Snapshot, error) {
	res, err := a.fetchBreaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.controllerURL+"/snapshot", nil)
		if err != nil {
			return nil, err
		}
		resp, err := a.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("GET /snapshot -> %s", resp.Status)
		}
		var snap model.Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return nil, err
		}
		return snap, nil
	})
	if err != nil {
		return model.Snapshot{}, err
	}
	return res.(model.Snapshot), nil
}

func (a *Adaptor) postUpdate(ctx context.Context, channel string, form url.Values) error {
	_, err := a.postBreaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.updateURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := a.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("POST update -> %s", resp.Status)
		}
		log.Printf("uplink: channel %s updated", channel)
		return nil, nil
	})
	return err
}

// buildSensorLookup flattens the snapshot into sensor_id -> view.
func buildSensorLookup(snap model.Snapshot) map[string]model.SensorView {
	out := make(map[string]model.SensorView)
	for _, lab := range snap.Labs {
		for _, sv := range lab.Sensors {
			out[sv.SensorID] = sv
		}
	}
	return out
}

func fieldNumber(name string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(name, "field%d", &n); err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid field name %q", name)
	}
	return n, nil
}
