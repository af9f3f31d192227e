package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/codex-k8s/telegram-jotting-pal/internal/markdown"
	"github.com/codex-k8s/telegram-jotting-pal/internal/metrics"
)

const maxEscapeBytes = 1 << 20

// EscapeHandler converts wire markdown to MarkdownV2 over HTTP.
type EscapeHandler struct {
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewEscapeHandler creates a new escape handler.
func NewEscapeHandler(m *metrics.Metrics, log *slog.Logger) *EscapeHandler {
	return &EscapeHandler{metrics: m, log: log}
}

// EscapeRequest defines input payload for /v1/escape.
type EscapeRequest struct {
	Text string `json:"text"`
}

// EscapeResponse defines output payload for /v1/escape.
type EscapeResponse struct {
	Text   string `json:"text,omitempty"`
	Error  string `json:"error,omitempty"`
	Offset *int   `json:"offset,omitempty"`
}

// ServeHTTP handles /v1/escape requests.
func (h *EscapeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req EscapeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEscapeBytes)).Decode(&req); err != nil {
		h.respond(w, http.StatusBadRequest, EscapeResponse{Error: "invalid json payload"})
		return
	}

	escaped, err := markdown.Escape(req.Text)
	h.metrics.ObserveEscape(err)
	if err != nil {
		resp := EscapeResponse{Error: err.Error()}
		var perr *markdown.ParseError
		if errors.As(err, &perr) {
			resp.Offset = &perr.Offset
		}
		h.log.Debug("Escape request rejected", "error", err)
		h.respond(w, http.StatusUnprocessableEntity, resp)
		return
	}
	h.respond(w, http.StatusOK, EscapeResponse{Text: escaped})
}

func (h *EscapeHandler) respond(w http.ResponseWriter, statusCode int, resp EscapeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to write escape response", "error", err)
	}
}
