// Package otelclient implements the metrics client on top of the global
// OpenTelemetry meter provider. Instruments are registered lazily per key.
package otelclient

import (
	"context"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fitsync/svc-exercise-refresh/pkg/metrics"
)

type MetricsClient struct {
	meter metric.Meter

	mu       sync.Mutex
	counters map[string]metric.Int64Counter
}

var _ metrics.Client = (*MetricsClient)(nil)

func NewMetricsClient(meterName string) *MetricsClient {
	return &MetricsClient{
		meter:    otel.GetMeterProvider().Meter(meterName),
		counters: make(map[string]metric.Int64Counter),
	}
}

func (c *MetricsClient) Inc(ctx context.Context, key string, value any, attributes ...attribute.KeyValue) {
	counter, err := c.counter(key)
	if err != nil {
		return
	}

	counter.Add(ctx, toInt64(value), metric.WithAttributes(attributes...))
}

func (c *MetricsClient) Handler() http.Handler {
	// Metrics are pushed through the OTEL pipeline, nothing to scrape.
	return http.NotFoundHandler()
}

func (c *MetricsClient) Shutdown(_ context.Context) error {
	return nil
}

func (c *MetricsClient) counter(key string) (metric.Int64Counter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, ok := c.counters[key]; ok {
		return counter, nil
	}

	counter, err := metrics.RegisterInt64Counter(c.meter, metrics.Descriptor{Unit: "1"}, key)
	if err != nil {
		return nil, err
	}

	c.counters[key] = counter

	return counter, nil
}

func toInt64(value any) int64 {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 1
	}
}
