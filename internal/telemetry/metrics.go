// Package telemetry wires Prometheus collectors and the OpenTelemetry SDK.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the application's Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
	plansGenerated       *prometheus.CounterVec
	explanationFallbacks prometheus.Counter
	textgenDuration      *prometheus.HistogramVec
	chatTurns            prometheus.Counter
	historyWrites        *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dietplanner_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dietplanner_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{.05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"method", "route"}),
		plansGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dietplanner_plans_generated_total",
			Help: "Diet plans assembled, by kind (1day, 7day).",
		}, []string{"kind"}),
		explanationFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "dietplanner_explanation_fallbacks_total",
			Help: "Meal explanations replaced by the placeholder text.",
		}),
		textgenDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dietplanner_textgen_request_duration_seconds",
			Help:    "Text generation latency by provider and outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "outcome"}),
		chatTurns: f.NewCounter(prometheus.CounterOpts{
			Name: "dietplanner_chat_turns_total",
			Help: "Chat prompts answered.",
		}),
		historyWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dietplanner_history_writes_total",
			Help: "History appends by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}

// Every method is nil-safe so components can run without metrics in tests.

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) PlanGenerated(kind string) {
	if m == nil {
		return
	}
	m.plansGenerated.WithLabelValues(kind).Inc()
}

func (m *Metrics) ExplanationFallback() {
	if m == nil {
		return
	}
	m.explanationFallbacks.Inc()
}

func (m *Metrics) ObserveTextGen(provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.textgenDuration.WithLabelValues(provider, outcome(err)).Observe(d.Seconds())
}

func (m *Metrics) ChatTurn() {
	if m == nil {
		return
	}
	m.chatTurns.Inc()
}

func (m *Metrics) HistoryWrite(kind string, err error) {
	if m == nil {
		return
	}
	m.historyWrites.WithLabelValues(kind, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
