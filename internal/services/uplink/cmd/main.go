package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sarasalimi77a-cpu/lab-t-h-control/internal/services/uplink"
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

	cfgPath := env("THINGSPEAK_KEYS_PATH", "/app/config/thingspeak-keys.json")
	cfg, err := uplink.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("uplink config load failed: %v", err)
	}

	adaptor := uplink.NewAdaptor(
		env("CONTROLLER_URL", "http://controller:8081"),
		env("THINGSPEAK_UPDATE_URL", "https://api.thingspeak.com/update"),
		cfg,
		time.Duration(envInt("UPLINK_POLL_SEC", 60))*time.Second,
		time.Duration(envInt("UPLINK_TIMEOUT_SEC", 10))*time.Second,
	)

	log.Printf("ThingSpeak uplink running. channels=%d poll=%ss", len(cfg.Channels), env("UPLINK_POLL_SEC", "60"))
	go adaptor.Run(ctx)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	<-sigc
	cancel()
}
