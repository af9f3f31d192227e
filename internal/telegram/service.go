// Package telegram runs the jotting-pal bot.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/mymmrac/telego"

	"github.com/codex-k8s/telegram-jotting-pal/internal/config"
	"github.com/codex-k8s/telegram-jotting-pal/internal/i18n"
	"github.com/codex-k8s/telegram-jotting-pal/internal/metrics"
	"github.com/codex-k8s/telegram-jotting-pal/internal/prompts"
	"github.com/codex-k8s/telegram-jotting-pal/internal/telegram/handlers"
	"github.com/codex-k8s/telegram-jotting-pal/internal/telegram/shared"
	"github.com/codex-k8s/telegram-jotting-pal/internal/telegram/updates"
	"github.com/codex-k8s/telegram-jotting-pal/internal/threads"
)

const pollTimeoutSec = 10

// Deps are the collaborators the bot needs beyond configuration.
type Deps struct {
	Bundle      i18n.Bundle
	Threads     *threads.Threads
	Prompts     *prompts.Catalog
	Completer   handlers.Completer
	Transcriber handlers.Transcriber
	Metrics     *metrics.Metrics
}

// Service manages the Telegram bot lifecycle.
type Service struct {
	bot     shared.Bot
	source  updates.Source
	handler *handlers.Handler
	log     *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Telegram service. The update source is a webhook when the
// configuration enables one, long polling otherwise.
func New(cfg config.Config, deps Deps, log *slog.Logger) (*Service, error) {
	bot, err := telego.NewBot(cfg.Token, telego.WithLogger(telegoLogger{log: log, token: cfg.Token}))
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	var source updates.Source
	if cfg.WebhookEnabled() {
		source = updates.NewWebhook(bot, cfg.WebhookURL, cfg.WebhookSecret, log)
	} else {
		source = updates.NewLongPolling(bot, pollTimeoutSec, log)
	}

	return newService(bot, source, cfg, deps, log), nil
}

func newService(bot shared.Bot, source updates.Source, cfg config.Config, deps Deps, log *slog.Logger) *Service {
	handler := handlers.NewHandler(handlers.Deps{
		Bot:         bot,
		Sender:      shared.NewSender(bot, cfg.MaxMessageRunes, deps.Metrics, log),
		Threads:     deps.Threads,
		Prompts:     deps.Prompts,
		Completer:   deps.Completer,
		Transcriber: deps.Transcriber,
		Messages:    deps.Bundle.Messages,
		Lang:        deps.Bundle.Lang,
		ChatAllowed: cfg.ChatAllowed,
		Metrics:     deps.Metrics,
		Log:         log,
	})
	return &Service{
		bot:     bot,
		source:  source,
		handler: handler,
		log:     log,
	}
}

// Start registers bot commands and begins processing updates.
func (s *Service) Start(ctx context.Context) error {
	if err := s.bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: s.handler.Commands()}); err != nil {
		return fmt.Errorf("set bot commands: %w", err)
	}
	if err := s.source.Start(ctx); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.handler.Run(runCtx, s.source.Updates())
	}()
	return nil
}

// Stop stops receiving updates and waits for in-flight updates until ctx is
// done.
func (s *Service) Stop(ctx context.Context) error {
	var result *multierror.Error
	if err := s.source.Stop(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if s.cancel != nil {
		s.cancel()
		waited := make(chan struct{})
		go func() {
			<-s.done
			s.handler.Wait()
			close(waited)
		}()
		select {
		case <-waited:
		case <-ctx.Done():
			result = multierror.Append(result, fmt.Errorf("wait for updates: %w", ctx.Err()))
		}
	}
	return result.ErrorOrNil()
}

// WebhookHandler returns the webhook HTTP handler, nil in long polling mode.
func (s *Service) WebhookHandler() http.Handler {
	return s.source.Handler()
}
