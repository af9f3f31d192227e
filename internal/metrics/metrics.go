// Package metrics exposes Prometheus counters for the bot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jotting_pal"

// Metrics holds the collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	escapes     *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	completions *prometheus.HistogramVec
	updates     *prometheus.CounterVec
}

// New creates collectors registered on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		escapes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markdown_escapes_total",
			Help:      "MarkdownV2 conversions by result.",
		}, []string{"result"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plain_fallbacks_total",
			Help:      "Messages sent without formatting after a MarkdownV2 failure.",
		}, []string{"reason"}),
		completions: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_completion_seconds",
			Help:      "Chat completion latency by model and status.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"model", "status"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates by kind.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.escapes,
		m.fallbacks,
		m.completions,
		m.updates,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveEscape counts a MarkdownV2 conversion.
func (m *Metrics) ObserveEscape(err error) {
	if m == nil {
		return
	}
	m.escapes.WithLabelValues(result(err)).Inc()
}

// PlainFallback counts a message resent as plain text.
func (m *Metrics) PlainFallback(reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(reason).Inc()
}

// ObserveCompletion records a chat completion.
func (m *Metrics) ObserveCompletion(model string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(model, result(err)).Observe(elapsed.Seconds())
}

// Update counts a received update.
func (m *Metrics) Update(kind string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(kind).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
