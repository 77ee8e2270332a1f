// Package observability wires OpenTelemetry tracing and Prometheus-backed
// metrics for the bridge. Both are no-ops when disabled in config.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	Tracing TracerConfig  `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Manager holds the initialized tracer provider and metrics recorder. It is
// built once at startup and read-only afterwards.
type Manager struct {
	tracerProvider trace.TracerProvider
	metrics        Metrics
}

// Init builds the tracing and metrics stack from config and registers the
// recorder as the process-wide default.
func Init(ctx context.Context, cfg Config) (*Manager, error) {
	tp, err := InitGlobalTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	metrics, err := InitMetrics(ctx, cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	SetGlobalMetrics(metrics)

	return &Manager{tracerProvider: tp, metrics: metrics}, nil
}

// Tracer returns a named tracer from the configured provider.
func (m *Manager) Tracer(name string) trace.Tracer {
	return m.tracerProvider.Tracer(name)
}

// Metrics returns the metrics recorder.
func (m *Manager) Metrics() Metrics {
	return m.metrics
}

// Shutdown flushes the tracer provider when it supports shutdown; the noop
// provider does not.
func (m *Manager) Shutdown(ctx context.Context) error {
	if tp, ok := m.tracerProvider.(interface{ Shutdown(context.Context) error }); ok {
		return tp.Shutdown(ctx)
	}
	return nil
}
