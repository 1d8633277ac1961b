// Package metrics holds the Prometheus collectors of the server.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/easel/internal/runtime"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and embedders don't collide on
// the global one.
type Metrics struct {
	registry *prometheus.Registry

	Commands           *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	GenerationErrors   *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
}

// New creates and registers every collector, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_commands_total",
				Help: "Edit commands attempted, by action and outcome status",
			},
			[]string{"action", "status"},
		),
		GenerationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "easel_generation_duration_seconds",
				Help:    "Latency of calls to the generation service",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"model"},
		),
		GenerationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_generation_errors_total",
				Help: "Failed calls to the generation service",
			},
			[]string{"model"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_http_requests_total",
				Help: "HTTP requests by route pattern, method and status code",
			},
			[]string{"route", "method", "code"},
		),
	}
	m.registry.MustRegister(
		m.Commands,
		m.GenerationDuration,
		m.GenerationErrors,
		m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks counts every interpreter outcome.
func (m *Metrics) Hooks() runtime.Hooks {
	return runtime.Hooks{
		OnOutcome: func(o domain.Outcome) {
			action := string(o.Action)
			if !o.Action.Known() {
				// Unknown tags come from the model; don't let them explode cardinality.
				action = "unknown"
			}
			m.Commands.WithLabelValues(action, string(o.Status)).Inc()
		},
	}
}

// Middleware counts requests by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}

// otherModel labels completions for models outside the instrumented set.
const otherModel = "other"

// InstrumentGenerator times every completion and counts failures. Only the
// given models get their own label; clients may name any model, so the rest
// share otherModel.
func (m *Metrics) InstrumentGenerator(gen ports.Generator, models ...string) ports.Generator {
	known := make(map[string]bool, len(models))
	for _, name := range models {
		if name != "" {
			known[name] = true
		}
	}
	return &instrumented{next: gen, m: m, models: known}
}

type instrumented struct {
	next   ports.Generator
	m      *Metrics
	models map[string]bool
}

func (g *instrumented) label(model string) string {
	if g.models[model] {
		return model
	}
	return otherModel
}

func (g *instrumented) Complete(ctx context.Context, req ports.Completion) (*ports.CompletionResult, error) {
	start := time.Now()
	res, err := g.next.Complete(ctx, req)
	model := g.label(req.Model)
	g.m.GenerationDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if err != nil {
		g.m.GenerationErrors.WithLabelValues(model).Inc()
	}
	return res, err
}

func (g *instrumented) Configured() bool {
	return g.next.Configured()
}
