// Package metrics provides the per-service operation metrics used by the
// application layer, backed by Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics records attempt/success/failure counts and durations for
// service operations.
type OperationMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

type promMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewOperationMetrics registers the operation metric vectors on the given
// registry.
func NewOperationMetrics(registry prometheus.Registerer) OperationMetrics {
	labels := []string{"operation", "service"}
	m := &promMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_operation_attempts_total",
			Help: "Number of service operation attempts.",
		}, labels),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_operation_successes_total",
			Help: "Number of successful service operations.",
		}, labels),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_operation_failures_total",
			Help: "Number of failed service operations.",
		}, labels),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arena_operation_duration_seconds",
			Help:    "Duration of service operations.",
			Buckets: prometheus.DefBuckets,
		}, labels),
	}
	registry.MustRegister(m.attempts, m.successes, m.failures, m.durations)
	return m
}

func (m *promMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *promMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *promMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *promMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(duration.Seconds())
}

type noopMetrics struct{}

// NewNoop returns metrics that record nothing. Used in tests.
func NewNoop() OperationMetrics { return noopMetrics{} }

func (noopMetrics) RecordOperationAttempt(context.Context, string, string)                {}
func (noopMetrics) RecordOperationSuccess(context.Context, string, string)                {}
func (noopMetrics) RecordOperationFailure(context.Context, string, string)                {}
func (noopMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
