package observability

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	globalMetrics Metrics
	metricsMu     sync.RWMutex
)

// Metrics records the agent exchanges and subscriber activity of the bridge.
type Metrics interface {
	RecordExchange(ctx context.Context, agent string, duration time.Duration, err error)
	RecordStreamEvent(ctx context.Context, agent string, updateType string)
	AddActiveSubscriptions(ctx context.Context, agent string, delta int64)
	RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

type PrometheusMetrics struct {
	exchangeDuration    metric.Float64Histogram
	exchangesTotal      metric.Int64Counter
	exchangeErrorsTotal metric.Int64Counter

	streamEventsTotal   metric.Int64Counter
	activeSubscriptions metric.Int64UpDownCounter

	httpDuration      metric.Float64Histogram
	httpRequestsTotal metric.Int64Counter
}

func NewPrometheusMetrics(
	exchangeDuration metric.Float64Histogram,
	exchangesTotal metric.Int64Counter,
	exchangeErrorsTotal metric.Int64Counter,
	streamEventsTotal metric.Int64Counter,
	activeSubscriptions metric.Int64UpDownCounter,
	httpDuration metric.Float64Histogram,
	httpRequestsTotal metric.Int64Counter,
) *PrometheusMetrics {
	return &PrometheusMetrics{
		exchangeDuration:    exchangeDuration,
		exchangesTotal:      exchangesTotal,
		exchangeErrorsTotal: exchangeErrorsTotal,
		streamEventsTotal:   streamEventsTotal,
		activeSubscriptions: activeSubscriptions,
		httpDuration:        httpDuration,
		httpRequestsTotal:   httpRequestsTotal,
	}
}

func (m *PrometheusMetrics) RecordExchange(ctx context.Context, agent string, duration time.Duration, err error) {
	if m == nil || m.exchangeDuration == nil || m.exchangesTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("agent", agent),
	}

	m.exchangeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.exchangesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	if err != nil && m.exchangeErrorsTotal != nil {
		m.exchangeErrorsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (m *PrometheusMetrics) RecordStreamEvent(ctx context.Context, agent string, updateType string) {
	if m == nil || m.streamEventsTotal == nil {
		return
	}

	m.streamEventsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("agent", agent),
		attribute.String("type", updateType),
	))
}

func (m *PrometheusMetrics) AddActiveSubscriptions(ctx context.Context, agent string, delta int64) {
	if m == nil || m.activeSubscriptions == nil {
		return
	}

	m.activeSubscriptions.Add(ctx, delta, metric.WithAttributes(
		attribute.String("agent", agent),
	))
}

func (m *PrometheusMetrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpDuration == nil || m.httpRequestsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.String("status", strconv.Itoa(statusCode)),
	}

	m.httpDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func SetGlobalMetrics(m Metrics) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	globalMetrics = m
}

func GetGlobalMetrics() Metrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return globalMetrics
}
