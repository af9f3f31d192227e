package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"

	"github.com/codex-k8s/telegram-jotting-pal/internal/config"
	httpapi "github.com/codex-k8s/telegram-jotting-pal/internal/http"
	"github.com/codex-k8s/telegram-jotting-pal/internal/i18n"
	"github.com/codex-k8s/telegram-jotting-pal/internal/llm"
	"github.com/codex-k8s/telegram-jotting-pal/internal/log"
	"github.com/codex-k8s/telegram-jotting-pal/internal/metrics"
	"github.com/codex-k8s/telegram-jotting-pal/internal/prompts"
	"github.com/codex-k8s/telegram-jotting-pal/internal/store"
	"github.com/codex-k8s/telegram-jotting-pal/internal/telegram"
	"github.com/codex-k8s/telegram-jotting-pal/internal/threads"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stdout, cfg.LogLevel, cfg.LogFormat, cfg.ServiceName)
	bundle, err := i18n.Load(cfg.Lang)
	if err != nil {
		logger.Error("Failed to load i18n", "error", err)
		os.Exit(1)
	}
	catalog, err := prompts.Load()
	if err != nil {
		logger.Error("Failed to load prompts", "error", err)
		os.Exit(1)
	}

	db, err := store.Open(cfg.StorePath, logger)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "path", cfg.StorePath)
		os.Exit(1)
	}
	th, err := threads.New(db, cfg.CacheSize, cfg.HistoryLimit, cfg.DefaultModel)
	if err != nil {
		logger.Error("Failed to init threads", "error", err)
		_ = db.Close()
		os.Exit(1)
	}

	m := metrics.New()
	openaiOpts := llm.Options{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		MaxRetries: cfg.OpenAIMaxRetries,
		Timeout:    cfg.ChatTimeout,
	}
	deps := telegram.Deps{
		Bundle:    bundle,
		Threads:   th,
		Prompts:   catalog,
		Completer: llm.NewClient(openaiOpts, m, logger),
		Metrics:   m,
	}
	if cfg.VoiceEnabled {
		sttOpts := openaiOpts
		sttOpts.Timeout = cfg.STTTimeout
		deps.Transcriber = llm.NewTranscriber(sttOpts, cfg.STTModel, logger)
	}

	service, err := telegram.New(cfg, deps, logger)
	if err != nil {
		logger.Error("Failed to init telegram service", "error", err)
		_ = db.Close()
		os.Exit(1)
	}

	server := httpapi.New(cfg.HTTPAddr(), m.Handler(), logger)
	server.Handle("/v1/escape", httpapi.NewEscapeHandler(m, logger))
	if webhook := service.WebhookHandler(); webhook != nil {
		server.Handle("/webhook", webhook)
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := service.Start(baseCtx); err != nil {
		logger.Error("Failed to start telegram updates", "error", err)
		_ = db.Close()
		os.Exit(1)
	}
	server.SetReady(true)

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		logger.Info("Shutdown requested", "signal", sig.String())
	case err := <-errCh:
		logger.Error("HTTP server stopped", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	var result *multierror.Error
	if err := server.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("http shutdown: %w", err))
	}
	if err := service.Stop(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("telegram stop: %w", err))
	}
	cancel()
	if err := db.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("store close: %w", err))
	}
	if err := result.ErrorOrNil(); err != nil {
		logger.Error("Shutdown finished with errors", "error", err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}
