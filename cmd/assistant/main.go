package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/microbemap/assistant/internal/config"
	"github.com/microbemap/assistant/internal/provider"
	"github.com/microbemap/assistant/internal/server"
	"github.com/microbemap/assistant/internal/session"
	"github.com/microbemap/assistant/internal/storage/sqlite"
	"github.com/microbemap/assistant/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("microbemap-assistant", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// The persisted provider config wins; the file/env config only seeds a
	// fresh store.
	providerCfg, ok, err := store.LoadProviderConfig(ctx)
	if err != nil {
		log.Fatalf("Failed to load provider config: %v", err)
	}
	if !ok {
		providerCfg = provider.Config{
			Kind:         provider.Kind(cfg.Provider.Kind),
			APIKey:       cfg.Provider.APIKey,
			Model:        cfg.Provider.Model,
			BaseURL:      cfg.Provider.BaseURL,
			DirectClient: cfg.Provider.DirectClient,
		}
	}
	holder := provider.NewHolder(providerCfg, func(c provider.Config) {
		if err := store.SaveProviderConfig(context.Background(), c); err != nil {
			logger.Error("failed to persist provider config", slog.String("error", err.Error()))
		}
	})

	origin := cfg.Server.Origin
	if origin == "" {
		origin = fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	}
	router := provider.NewRouter(logger, origin+server.ProxyPath,
		provider.WithAppOrigin(origin))

	sessions, err := store.LoadSessions(ctx)
	if err != nil {
		log.Fatalf("Failed to load sessions: %v", err)
	}
	activeID, err := store.LoadActiveSession(ctx)
	if err != nil {
		log.Fatalf("Failed to load active session: %v", err)
	}

	manager := session.NewManager(logger, router, holder.Get, store, sessions, activeID,
		session.WithLanguage(cfg.Language))

	srv := server.New(cfg.Server.Port, logger)
	handlers := server.NewHandlers(manager, holder)
	handlers.Mount(srv.Router, server.NewProxyHandler(nil))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed: %v", err)
	case <-sigCh:
		logger.Info("shutdown signal received")
	}
}
