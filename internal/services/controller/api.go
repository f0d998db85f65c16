package controller

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/entities"
)

// API exposes the snapshot and manual-override surface consumed by the
// registry, dashboard and chat-bot.
type API struct {
	engine *Engine
	mqtt   mqtt.Client
}

func NewAPI(engine *Engine, client mqtt.Client) *API {
	return &API{engine: engine, mqtt: client}
}

// Register mounts the handlers on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /snapshot", a.handleSnapshot)
	mux.HandleFunc("GET /labs/{lab}/snapshot", a.handleLabSnapshot)
	mux.HandleFunc("POST /override", a.handleOverride)
	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.HandleFunc("GET /readyz", a.handleReady)
}

func (a *API) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a.engine.Snapshot())
}

func (a *API) handleLabSnapshot(w http.ResponseWriter, r *http.Request) {
	view, ok := a.engine.State().LabSnapshot(r.PathValue("lab"))
	if !ok {
		http.Error(w, `{"error":"unknown lab"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

type overrideRequest struct {
	LabID      string `json:"lab_id"`
	ActuatorID string `json:"actuator_id"`
	Action     string `json:"action"`
	Source     string `json:"source"`
}

func (a *API) handleOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad request body"}`, http.StatusBadRequest)
		return
	}
	err := a.engine.Override(req.LabID, req.ActuatorID, entities.ActuatorAction(req.Action), req.Source)
	if err != nil {
		log.Printf("api: override rejected: %v", err)
		http.Error(w, `{"error":"invalid override"}`, http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"accepted": true})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status          string  `json:"status"`
		MQTTConnected   bool    `json:"mqtt_connected"`
		LastPublishErrS float64 `json:"last_publish_error_age_sec"`
	}
	st := status{
		MQTTConnected:   a.mqtt != nil && a.mqtt.IsConnectionOpen(),
		LastPublishErrS: a.engine.PublishErrorAge().Seconds(),
	}

	// ok when the bus is up and commands have been flowing cleanly;
	// transport trouble degrades the controller, never kills it
	switch {
	case st.MQTTConnected && a.engine.PublishErrorAge() > 30*time.Second:
		st.Status = "ok"
	case st.MQTTConnected:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

func (a *API) handleReady(w http.ResponseWriter, _ *http.Request) {
	ready := a.mqtt != nil && a.mqtt.IsConnectionOpen()
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ready": ready})
}
