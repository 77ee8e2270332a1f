package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// InitMetrics builds the meter instruments behind the Prometheus exporter.
// The exporter registers with the default Prometheus registry, so the
// scrape endpoint is whatever serves promhttp.Handler.
func InitMetrics(ctx context.Context, cfg MetricsConfig) (*PrometheusMetrics, error) {
	if !cfg.Enabled {
		return &PrometheusMetrics{}, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter("agentbridge")

	exchangeDuration, err := meter.Float64Histogram(
		"agentbridge_exchange_duration_seconds",
		metric.WithDescription("Agent exchange duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange duration histogram: %w", err)
	}

	exchanges, err := meter.Int64Counter(
		"agentbridge_exchanges_total",
		metric.WithDescription("Total agent exchanges"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exchanges counter: %w", err)
	}

	exchangeErrors, err := meter.Int64Counter(
		"agentbridge_exchange_errors_total",
		metric.WithDescription("Total failed agent exchanges"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange errors counter: %w", err)
	}

	streamEvents, err := meter.Int64Counter(
		"agentbridge_stream_events_total",
		metric.WithDescription("Total status updates delivered to subscribers"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream events counter: %w", err)
	}

	activeSubscriptions, err := meter.Int64UpDownCounter(
		"agentbridge_active_subscriptions",
		metric.WithDescription("Currently open streaming subscriptions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active subscriptions counter: %w", err)
	}

	httpDuration, err := meter.Float64Histogram(
		"agentbridge_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	httpRequests, err := meter.Int64Counter(
		"agentbridge_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http requests counter: %w", err)
	}

	return NewPrometheusMetrics(
		exchangeDuration,
		exchanges,
		exchangeErrors,
		streamEvents,
		activeSubscriptions,
		httpDuration,
		httpRequests,
	), nil
}
