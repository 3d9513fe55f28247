package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucidframe/conversa/internal/config"
	"github.com/lucidframe/conversa/internal/httpapi"
	"github.com/lucidframe/conversa/internal/observability"
)

// serveOptions bundles the serve command's flags, passed through to
// runServe so the command layer stays thin.
type serveOptions struct {
	configPath   string
	debug        bool
	archivesDir  string
	searchAddr   string
	searchAPIKey string
}

// runServe implements the serve command: load config, wire collaborators,
// start the HTTP server, and block for a shutdown signal, grounded on the
// teacher's runServe in cmd/nexus/handlers_serve.go.
func runServe(ctx context.Context, opts serveOptions) error {
	level := "info"
	if opts.debug {
		level = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{Level: level, Format: "json"})

	slog.Info("starting conversa server", "version", version, "commit", commit, "config", opts.configPath)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("configuration loaded",
		"http_port", cfg.Server.HTTPPort,
		"llm_default_provider", cfg.LLM.DefaultProvider,
	)

	a, err := buildApp(cfg, opts.archivesDir, opts.searchAddr, opts.searchAPIKey, logger)
	if err != nil {
		return fmt.Errorf("failed to wire server: %w", err)
	}
	defer a.archive.Close()

	srv := httpapi.NewServer(a.deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
	if err := srv.Start(addr); err != nil {
		return fmt.Errorf("failed to start http server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("conversa server started", "addr", addr)
	<-ctx.Done()
	slog.Info("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	slog.Info("conversa server stopped gracefully")
	return nil
}
