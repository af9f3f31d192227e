// Package http exposes health, metrics and the escape API.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Server wraps an HTTP server with readiness checks.
type Server struct {
	server *http.Server
	mux    *http.ServeMux
	ready  atomic.Bool
	log    *slog.Logger
}

// New creates a new HTTP server serving /healthz, /readyz and, when
// metrics is not nil, /metrics.
func New(addr string, metrics http.Handler, log *slog.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{
		mux: mux,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
	mux.HandleFunc("/healthz", s.healthz)
	mux.HandleFunc("/readyz", s.readyz)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return s
}

// Handle registers a handler.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// SetReady updates readiness state.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// ListenAndServe starts the HTTP server. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info("HTTP server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.SetReady(false)
	return s.server.Shutdown(ctx)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
