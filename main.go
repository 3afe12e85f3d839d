package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"memory-match-server/api"
	"memory-match-server/auth"
	"memory-match-server/config"
	"memory-match-server/difficulty"
	"memory-match-server/loghandler"
	"memory-match-server/sessions"
	"memory-match-server/ws"
)

func main() {
	envErr := godotenv.Load()

	cfg := loadConfig(os.Stdout)

	if envErr != nil {
		slog.Info("no .env file found; using environment variables", "tag", "main")
	}

	slog.Info("configuration loaded", "tag", "main",
		"matchRevealMS", cfg.MatchRevealMS,
		"mismatchRevealMS", cfg.MismatchRevealMS,
		"defaultDifficulty", cfg.DefaultDifficulty,
		"wsPort", cfg.WSPort)

	// Difficulty table
	registry := difficulty.NewRegistry()
	difficulty.RegisterAll(registry, &cfg.Difficulties)
	if _, ok := registry.Difficulty(cfg.DefaultDifficulty); !ok {
		slog.Error("default difficulty is not registered", "tag", "main", "difficulty", cfg.DefaultDifficulty)
		os.Exit(1)
	}

	var authenticator ws.Authenticator
	if cfg.NeonAuthBaseURL == "" {
		slog.Info("auth disabled: NEON_AUTH_BASE_URL is not set", "tag", "main")
	} else {
		validator, err := auth.NewNeonValidator(cfg.NeonAuthBaseURL)
		if err != nil {
			slog.Error("auth setup failed", "tag", "main", "err", err)
			os.Exit(1)
		}
		authenticator = validator
		slog.Info("auth configured", "tag", "main", "baseURL", cfg.NeonAuthBaseURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := sessions.NewManager(cfg, registry)

	hub := ws.NewHub(cfg, manager, registry, authenticator)
	go hub.Run(ctx)

	router := api.NewRouter(api.NewHandler(cfg, registry, manager), hub.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.WSPort)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		slog.Info("memory match server listening", "tag", "main", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "tag", "main", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down", "tag", "main")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown failed", "tag", "main", "err", err)
	}
	manager.Shutdown()
}

// loadConfig installs the compact logger before reading configuration so
// config warnings share its format. The level starts from LOG_LEVEL and is
// then set from the loaded config.
func loadConfig(w io.Writer) *config.Config {
	level := new(slog.LevelVar)
	level.Set(loghandler.ParseLevel(os.Getenv("LOG_LEVEL")))
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(w, level)))

	cfg := config.Load()
	level.Set(loghandler.ParseLevel(cfg.LogLevel))
	return cfg
}
