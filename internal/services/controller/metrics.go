package controller

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the control-loop observability counters.
type Metrics struct {
	TicksTotal        prometheus.Counter
	TickDuration      prometheus.Gauge
	CommandsPublished prometheus.Counter
	PublishErrors     prometheus.Counter
	IngestDropped     prometheus.Counter
	MalformedPayloads prometheus.Counter
	UnknownDevices    prometheus.Counter
	DuplicateDropped  prometheus.Counter
	SensorsOffline    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labctl_ticks_total",
			Help: "Control loop ticks executed.",
		}),
		TickDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "labctl_last_tick_duration_seconds",
			Help: "Duration of the most recent control loop tick.",
		}),
		CommandsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labctl_commands_published_total",
			Help: "Actuator commands published on the bus.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labctl_publish_errors_total",
			Help: "Failed command publish attempts.",
		}),
		IngestDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labctl_ingest_dropped_total",
			Help: "Inbound messages dropped because the ingest buffer was full.",
		}),
		MalformedPayloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labctl_malformed_payloads_total",
			Help: "Inbound messages dropped at the ingestion boundary.",
		}),
		UnknownDevices: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labctl_unknown_devices_total",
			Help: "Messages referencing labs or devices missing from the catalog.",
		}),
		DuplicateDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labctl_duplicates_dropped_total",
			Help: "QoS1 redeliveries discarded by payload dedup.",
		}),
		SensorsOffline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "labctl_sensors_offline",
			Help: "Sensors currently flagged offline.",
		}),
	}
	reg.MustRegister(
		m.TicksTotal,
		m.TickDuration,
		m.CommandsPublished,
		m.PublishErrors,
		m.IngestDropped,
		m.MalformedPayloads,
		m.UnknownDevices,
		m.DuplicateDropped,
		m.SensorsOffline,
	)
	return m
}
