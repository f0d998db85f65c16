package uplink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model"
)

func fp(v float64) *float64 { return &v }

func snapshotFixture() model.Snapshot {
	return model.Snapshot{Labs: []model.LabView{
		{
			LabID: "lab1",
			Sensors: []model.SensorView{
				{SensorID: "s1", LabID: "lab1", Reading: &model.Reading{T: fp(26.53), H: fp(55.2), Ts: 1000}},
				{SensorID: "s2", LabID: "lab1", Reading: &model.Reading{T: fp(30.0), Ts: 900}, Offline: true},
			},
		},
	}}
}

func testConfig() Config {
	return Config{Channels: []Channel{{
		Name:   "lab1-climate",
		APIKey: "KEY",
		Fields: map[string]FieldMapping{
			"field1": {SensorID: "s1", Metric: "t"},
			"field2": {SensorID: "s1", Metric: "h"},
			"field3": {SensorID: "s2", Metric: "t"}, // offline, skipped
			"field4": {SensorID: "missing", Metric: "t"},
		},
	}}}
}

func TestRunOnceUploadsMappedFields(t *testing.T) {
	controller := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/snapshot" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(snapshotFixture())
	}))
	defer controller.Close()

	var mu sync.Mutex
	var got url.Values
	thingspeak := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		mu.Lock()
		got = r.PostForm
		mu.Unlock()
		w.Write([]byte("1"))
	}))
	defer thingspeak.Close()

	a := NewAdaptor(controller.URL, thingspeak.URL, testConfig(), time.Minute, time.Second)
	if err := a.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got == nil {
		t.Fatalf("no update posted")
	}
	if got.Get("api_key") != "KEY" {
		t.Fatalf("api key missing, got %v", got)
	}
	if got.Get("field1") != "26.53" || got.Get("field2") != "55.20" {
		t.Fatalf("unexpected field values: %v", got)
	}
	if got.Get("field3") != "" {
		t.Fatalf("offline sensor must not be uploaded: %v", got)
	}
	if got.Get("field4") != "" {
		t.Fatalf("unknown sensor must not be uploaded: %v", got)
	}
}

func TestRunOnceSkipsEmptyChannels(t *testing.T) {
	controller := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(model.Snapshot{})
	}))
	defer controller.Close()

	posted := false
	thingspeak := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posted = true
	}))
	defer thingspeak.Close()

	a := NewAdaptor(controller.URL, thingspeak.URL, testConfig(), time.Minute, time.Second)
	if err := a.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if posted {
		t.Fatalf("channel without values must not post")
	}
}

func TestFetchBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	controller := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer controller.Close()

	a := NewAdaptor(controller.URL, "http://unused", testConfig(), time.Minute, time.Second)

	for i := 0; i < 3; i++ {
		if err := a.RunOnce(context.Background()); err == nil {
			t.Fatalf("cycle %d should fail", i)
		}
	}
	// breaker is open now: the cycle fails fast without hitting the server
	if err := a.RunOnce(context.Background()); err == nil {
		t.Fatalf("open breaker must fail the cycle")
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("does-not-exist.json")
	if err != nil {
		t.Fatalf("missing keys file must not be an error: %v", err)
	}
	if len(cfg.Channels) != 0 {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}
