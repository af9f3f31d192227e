package updates

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/mymmrac/telego"
)

// Poller is the part of the bot used for long polling.
type Poller interface {
	UpdatesViaLongPolling(ctx context.Context, params *telego.GetUpdatesParams, options ...telego.LongPollingOption) (<-chan telego.Update, error)
}

// LongPolling delivers Telegram updates via getUpdates.
type LongPolling struct {
	bot     Poller
	timeout int
	log     *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	updates <-chan telego.Update
}

// NewLongPolling creates a long polling source asking Telegram to hold each
// request for timeoutSec seconds.
func NewLongPolling(bot Poller, timeoutSec int, log *slog.Logger) *LongPolling {
	return &LongPolling{bot: bot, timeout: timeoutSec, log: log}
}

// Start begins polling. Polling ends when ctx is done or Stop is called.
func (l *LongPolling) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return fmt.Errorf("long polling already started")
	}
	pollCtx, cancel := context.WithCancel(ctx)
	updates, err := l.bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{
		Timeout:        l.timeout,
		AllowedUpdates: allowedUpdates,
	})
	if err != nil {
		cancel()
		return fmt.Errorf("start long polling: %w", err)
	}
	l.cancel = cancel
	l.updates = updates
	l.log.Info("Telegram updates started via long polling", "timeout", l.timeout)
	return nil
}

// Updates returns the updates channel.
func (l *LongPolling) Updates() <-chan telego.Update {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.updates
}

// Stop ends polling.
func (l *LongPolling) Stop(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
		l.log.Info("Telegram long polling stopped")
	}
	return nil
}

// Handler is nil for long polling.
func (l *LongPolling) Handler() http.Handler {
	return nil
}
