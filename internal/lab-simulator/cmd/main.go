package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/catalog"
	labSimulator "github.com/sarasalimi77a-cpu/lab-t-h-control/internal/lab-simulator"
	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/model/messages"
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

	cfg := &mqttbus.Config{
		Host:     env("MQTT_HOST", "localhost"),
		Port:     envInt("MQTT_PORT", 1883),
		User:     env("MQTT_USER", "guest"),
		Password: env("MQTT_PASSWORD", "guest"),
		ClientID: fmt.Sprintf("LabSimulator-%s", env("HOSTNAME", "local")),
	}
	mqClient, err := mqttbus.NewConn(cfg, ctx)
	if err != nil {
		log.Fatalf("MQTT connect failed: %v", err)
	}

	topo, err := catalog.Load(
		env("LABS_PATH", "/app/catalog/labs.json"),
		env("DEVICES_PATH", "/app/catalog/devices.json"),
		env("THRESHOLDS_PATH", "/app/catalog/thresholds.json"),
	)
	if err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}

	consumer := mqttbus.NewConsumer(mqClient, messages.ActuatorCmdSub, nil)
	sim := labSimulator.NewLabSimulator(
		topo,
		mqttbus.NewPublisher(mqClient),
		consumer,
		time.Duration(envInt("SIM_LOOP_SEC", 5))*time.Second,
	)

	log.Printf("LabSimulator running. labs=%d interval=%ss", len(topo.Labs()), env("SIM_LOOP_SEC", "5"))
	go sim.Run(ctx)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	<-sigc
	cancel()
}
