package observability

import (
	"context"
	"time"
)

// NoopMetrics discards every recording. Used when metrics are disabled and
// a caller still needs a Metrics value.
type NoopMetrics struct{}

func (NoopMetrics) RecordExchange(_ context.Context, _ string, _ time.Duration, _ error) {}
func (NoopMetrics) RecordStreamEvent(_ context.Context, _ string, _ string)              {}
func (NoopMetrics) AddActiveSubscriptions(_ context.Context, _ string, _ int64)          {}
func (NoopMetrics) RecordHTTPRequest(_ context.Context, _, _ string, _ int, _ time.Duration) {
}

var _ Metrics = NoopMetrics{}
var _ Metrics = (*PrometheusMetrics)(nil)
