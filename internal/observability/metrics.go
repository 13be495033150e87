// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors used by the orchestrator.
type Metrics struct {
	// ExchangesTotal counts finished exchanges by mode and finish reason
	// (stop, stopped, error).
	ExchangesTotal *prometheus.CounterVec

	ActiveSessions prometheus.Gauge

	ModelPassDuration *prometheus.HistogramVec

	// ToolExecutions counts tool calls by tool name and status (success, error).
	ToolExecutions *prometheus.CounterVec

	ToolDuration *prometheus.HistogramVec

	PersistenceFailures *prometheus.CounterVec
}

// NewMetrics registers all collectors on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ExchangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "askflow_exchanges_total",
				Help: "Total number of finished exchanges by mode and finish reason",
			},
			[]string{"mode", "finish_reason"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "askflow_active_sessions",
				Help: "Number of exchanges currently streaming",
			},
		),
		ModelPassDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "askflow_model_pass_duration_seconds",
				Help:    "Duration of a single streamed model pass",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"mode", "pass"},
		),
		ToolExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "askflow_tool_executions_total",
				Help: "Total number of tool executions by tool and status",
			},
			[]string{"tool", "status"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "askflow_tool_duration_seconds",
				Help:    "Duration of tool executions",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"tool"},
		),
		PersistenceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "askflow_persistence_failures_total",
				Help: "Background persistence failures by operation",
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) RecordExchange(mode, finishReason string) {
	m.ExchangesTotal.WithLabelValues(mode, finishReason).Inc()
}

func (m *Metrics) RecordModelPass(mode, pass string, d time.Duration) {
	m.ModelPassDuration.WithLabelValues(mode, pass).Observe(d.Seconds())
}

func (m *Metrics) RecordTool(tool string, ok bool, d time.Duration) {
	status := "success"
	if !ok {
		status = "error"
	}
	m.ToolExecutions.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

func (m *Metrics) RecordPersistenceFailure(operation string) {
	m.PersistenceFailures.WithLabelValues(operation).Inc()
}
