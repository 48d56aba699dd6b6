package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alkime/repurpose/internal/config"
	"github.com/alkime/repurpose/internal/launchpad"
	"github.com/alkime/repurpose/internal/llm"
	"github.com/alkime/repurpose/internal/logger"
	"github.com/alkime/repurpose/internal/metrics"
	"github.com/alkime/repurpose/internal/server"
	"github.com/alkime/repurpose/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	lgr := logger.SetupLogger(cfg)

	lgr.Info("Starting repurpose server",
		"env", cfg.Env,
		"port", cfg.Port,
		"provider", cfg.LLMProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := llm.New(ctx, llm.Config{
		Provider: llm.Provider(cfg.LLMProvider),
		APIKey:   cfg.APIKey(),
		Model:    cfg.LLMModel,
	}, lgr)
	if err != nil {
		lgr.Error("Failed to create generator", "error", err)
		log.Fatalf("Fatal: %v", err)
	}

	deps := server.Deps{
		Generator: gen,
		Metrics:   metrics.New(),
	}

	if cfg.RedisURL != "" {
		client, err := session.Connect(ctx, cfg.RedisURL)
		if err != nil {
			lgr.Error("Failed to connect to redis", "error", err)
			log.Fatalf("Fatal: %v", err)
		}
		defer client.Close()

		deps.Runs = session.NewRedis[server.Run](client, "repurpose:run:", cfg.SessionTTL)
		deps.Launchpads = session.NewRedis[launchpad.Session](client, "repurpose:launchpad:", cfg.SessionTTL)
		lgr.Info("Using redis session store")
	} else {
		lgr.Info("Using in-memory session store", "ttl", cfg.SessionTTL)
	}

	srv := server.New(cfg, lgr, deps)
	if err := srv.ListenAndServe(ctx); err != nil {
		lgr.Error("Server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}

	lgr.Info("Server stopped")
}
