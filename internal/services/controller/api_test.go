package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model"
)

func newTestServer(t *testing.T) (*Engine, *fakePublisher, *httptest.Server) {
	t.Helper()
	e, pub, _, _ := newTestEngine(t)
	mux := http.NewServeMux()
	NewAPI(e, nil).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return e, pub, srv
}

func TestSnapshotEndpoint(t *testing.T) {
	e, _, srv := newTestServer(t)

	offerReading(e, "s1", 31, 50, 9_999)
	e.tickOnce()

	resp, err := http.Get(srv.URL + "/snapshot")
	if err != nil {
		t.Fatalf("GET /snapshot: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var snap model.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Labs) != 2 {
		t.Fatalf("expected 2 labs, got %d", len(snap.Labs))
	}
	if snap.Labs[0].Sensors[0].Reading == nil || *snap.Labs[0].Sensors[0].Reading.T != 31 {
		t.Fatalf("snapshot missing the reading: %+v", snap.Labs[0].Sensors[0])
	}
	if snap.Labs[0].Actuators[0].LastCommand == nil {
		t.Fatalf("snapshot missing the command intent")
	}
}

func TestLabSnapshotEndpoint(t *testing.T) {
	_, _, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/labs/lab2/snapshot")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var view model.LabView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.LabID != "lab2" || view.Name != "Biology" {
		t.Fatalf("unexpected lab view: %+v", view)
	}

	resp2, err := http.Get(srv.URL + "/labs/nope/snapshot")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown lab must 404, got %d", resp2.StatusCode)
	}
}

func TestOverrideEndpoint(t *testing.T) {
	e, pub, srv := newTestServer(t)

	body := bytes.NewBufferString(`{"lab_id":"lab1","actuator_id":"fan1","action":"ON","source":"bot"}`)
	resp, err := http.Post(srv.URL+"/override", "application/json", body)
	if err != nil {
		t.Fatalf("POST /override: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	e.tickOnce()
	cmds := pub.take()
	if len(cmds) != 1 {
		t.Fatalf("expected the override to be emitted, got %+v", cmds)
	}

	// invalid target rejected
	body = bytes.NewBufferString(`{"lab_id":"lab1","actuator_id":"ghost","action":"ON"}`)
	resp, err = http.Post(srv.URL+"/override", "application/json", body)
	if err != nil {
		t.Fatalf("POST /override: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid override must 400, got %d", resp.StatusCode)
	}
}

func TestHealthWithoutBroker(t *testing.T) {
	_, _, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	var st struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Status != "down" {
		t.Fatalf("no MQTT client must report down, got %q", st.Status)
	}

	resp2, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("not ready must 503, got %d", resp2.StatusCode)
	}
}
