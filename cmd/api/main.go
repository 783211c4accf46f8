package main

import (
	"log"
	"net/http"
	"time"

	"propztest/adapters/api"
	"propztest/internal"
	"propztest/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(cfg.LogLevel)

	server, err := api.NewServer(cfg.Test.Tester(), logger)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("z-test API listening on %s (alpha=%g, min n=%d)", httpServer.Addr, cfg.Test.Alpha, cfg.Test.MinSampleSize)
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
