package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/catalog"
	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/messages"
	controller "github.com/sarasalimi77a-cpu/lab-t-h-control/internal/services/controller"
	"github.com/sarasalimi77a-cpu/lab-t-h-control/pkg/mqttbus"
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MQTT
	host := env("MQTT_HOST", "localhost")
	port := envInt("MQTT_PORT", 1883)
	user := env("MQTT_USER", "guest")
	pass := env("MQTT_PASSWORD", "guest")
	clientID := fmt.Sprintf("LabController-%s", env("HOSTNAME", "local"))

	cfg := &mqttbus.Config{Host: host, Port: port, User: user, Password: pass, ClientID: clientID}
	mqClient, err := mqttbus.NewConn(cfg, ctx)
	if err != nil {
		log.Fatalf("MQTT connect failed: %v", err)
	}

	// Catalog
	labsPath := env("LABS_PATH", "/app/catalog/labs.json")
	devicesPath := env("DEVICES_PATH", "/app/catalog/devices.json")
	thresholdsPath := env("THRESHOLDS_PATH", "/app/catalog/thresholds.json")
	topo, err := catalog.Load(labsPath, devicesPath, thresholdsPath)
	if err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}

	reg := prometheus.NewRegistry()
	metrics := controller.NewMetrics(reg)

	state := controller.NewStateTable(topo)
	engine := controller.NewEngine(topo, state, mqttbus.NewPublisher(mqClient), metrics, controller.Config{
		TickInterval:  time.Duration(envInt("CONTROL_LOOP_SEC", 2)) * time.Second,
		SensorTimeout: time.Duration(envInt("SENSOR_TIMEOUT_SEC", 60)) * time.Second,
		IngestBuffer:  envInt("INGEST_BUFFER", 1024),
	})

	bridge := controller.NewBridge(engine, metrics)
	consumer := mqttbus.NewMultiConsumer(mqClient, []string{
		messages.SensorStateSub,
		messages.ActuatorStateSub,
	}, bridge.HandleMessage)
	go consumer.ConsumeMessage(ctx)

	// HTTP: snapshot + override + health + metrics
	mux := http.NewServeMux()
	controller.NewAPI(engine, mqClient).Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	httpAddr := ":" + env("HTTP_PORT", "8081")
	srv := &http.Server{Addr: httpAddr, Handler: mux}
	go func() {
		log.Printf("controller: HTTP listening on %s", httpAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	engineDone := make(chan struct{})
	go func() {
		engine.Run(ctx)
		close(engineDone)
	}()
	log.Printf("LabController running. labs=%d tick=%ss", len(topo.Labs()), env("CONTROL_LOOP_SEC", "2"))

	// graceful shutdown: let the loop finish its drain before exiting
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	<-sigc
	cancel()
	<-engineDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
