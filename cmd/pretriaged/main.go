package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourorg/pretriaged/internal/ai"
	"github.com/yourorg/pretriaged/internal/config"
	httphandler "github.com/yourorg/pretriaged/internal/http"
	"github.com/yourorg/pretriaged/internal/reference"
	"github.com/yourorg/pretriaged/internal/session"
	"github.com/yourorg/pretriaged/internal/triage"
)

func main() {
	// Try loading .env from multiple locations:
	// 1. Current directory (when running from cmd/pretriaged/)
	// 2. Parent directory (when .env is in project root)
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	cfg := config.LoadConfig()
	if err := config.ValidateConfig(cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("starting pretriaged", "host", cfg.Host, "port", cfg.Port, "session_store", cfg.SessionStoreDriver)

	rt, err := reference.Load(cfg.ReferenceDataDir)
	if err != nil {
		slog.Error("reference data load failed, refusing to serve", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := buildSessionStore(cfg)
	if err != nil {
		slog.Error("session store initialization failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	orchestrator := triage.NewOrchestrator(store, rt)
	if cfg.AIPhrasingEnabled {
		breakerCfg := ai.CircuitBreakerConfig{
			FailureThreshold: cfg.AICircuitFailureThreshold,
			ResetTimeout:     cfg.AICircuitResetTimeout,
			HalfOpenMax:      cfg.AICircuitHalfOpenMax,
		}
		provider := ai.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.AIRequestTimeout, breakerCfg)
		orchestrator.Phraser = ai.NewPhraser(provider, cfg.AIMaxTokens)
	}
	router := httphandler.SetupRouter(cfg, orchestrator)

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:           addr,
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		slog.Info("http server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "err", err)
		os.Exit(1)
	}
	slog.Info("server shutdown complete")
}

// buildSessionStore selects the memory or SQLite session store per
// cfg.SessionStoreDriver; config.ValidateConfig already rejects any other
// value, so the default case here is unreachable.
func buildSessionStore(cfg *config.Config) (triage.SessionStore, func(), error) {
	switch cfg.SessionStoreDriver {
	case "sqlite":
		store, err := session.NewSQLiteStore(session.SQLiteConfig{DBPath: cfg.SessionDBPath})
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite session store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return session.NewMemoryStore(), func() {}, nil
	}
}
