package updates

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/mymmrac/telego"
)

const (
	secretHeader   = "X-Telegram-Bot-Api-Secret-Token"
	maxUpdateBytes = 1 << 20
	webhookQueue   = 128
)

// WebhookBot is the part of the bot used to manage the webhook.
type WebhookBot interface {
	SetWebhook(ctx context.Context, params *telego.SetWebhookParams) error
	DeleteWebhook(ctx context.Context, params *telego.DeleteWebhookParams) error
}

// Webhook delivers Telegram updates pushed to an HTTP endpoint.
type Webhook struct {
	bot     WebhookBot
	url     string
	secret  string
	updates chan telego.Update
	closed  atomic.Bool
	log     *slog.Logger
}

// NewWebhook creates a webhook source registered at url. Requests must carry
// secret in the secret token header.
func NewWebhook(bot WebhookBot, url, secret string, log *slog.Logger) *Webhook {
	return &Webhook{
		bot:     bot,
		url:     url,
		secret:  secret,
		updates: make(chan telego.Update, webhookQueue),
		log:     log,
	}
}

// Start registers the webhook with Telegram.
func (w *Webhook) Start(ctx context.Context) error {
	err := w.bot.SetWebhook(ctx, &telego.SetWebhookParams{
		URL:            w.url,
		SecretToken:    w.secret,
		AllowedUpdates: allowedUpdates,
	})
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	w.log.Info("Telegram updates started via webhook", "url", w.url)
	return nil
}

// Stop rejects further deliveries and removes the webhook. Pending updates
// stay queued on Telegram's side for the next start.
func (w *Webhook) Stop(ctx context.Context) error {
	w.closed.Store(true)
	if err := w.bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// Updates returns the updates channel.
func (w *Webhook) Updates() <-chan telego.Update {
	return w.updates
}

// Handler returns the HTTP handler receiving Telegram updates.
func (w *Webhook) Handler() http.Handler {
	return http.HandlerFunc(w.serveHTTP)
}

func (w *Webhook) serveHTTP(rw http.ResponseWriter, r *http.Request) {
	if w.closed.Load() {
		rw.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	got := r.Header.Get(secretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(w.secret)) != 1 {
		w.log.Warn("Webhook secret mismatch", "remote", r.RemoteAddr)
		rw.WriteHeader(http.StatusUnauthorized)
		return
	}

	var update telego.Update
	body := http.MaxBytesReader(rw, r.Body, maxUpdateBytes)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(&update); err != nil {
		w.log.Error("Failed to decode webhook update", "error", err)
		rw.WriteHeader(http.StatusBadRequest)
		return
	}

	select {
	case w.updates <- update:
		rw.WriteHeader(http.StatusOK)
	default:
		// Telegram retries non-2xx deliveries.
		w.log.Error("Webhook update dropped: queue full", "update_id", update.UpdateID)
		rw.WriteHeader(http.StatusServiceUnavailable)
	}
}
