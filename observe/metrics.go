package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records telemetry for tool invocations, cache traffic, and
// upstream API requests.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records a tool invocation with duration and error status.
	RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error)

	// RecordCache records one cache lookup per namespace.
	RecordCache(ctx context.Context, namespace string, hit bool)

	// RecordUpstream records one upstream API request.
	RecordUpstream(ctx context.Context, method string, status int)
}

type metricsImpl struct {
	callCount     metric.Int64Counter
	callErrors    metric.Int64Counter
	callDuration  metric.Float64Histogram
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	upstreamCount metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	callCount, err := meter.Int64Counter(
		"mcp.call.total",
		metric.WithDescription("Total number of tool invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	callErrors, err := meter.Int64Counter(
		"mcp.call.errors",
		metric.WithDescription("Total number of failed tool invocations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	callDuration, err := meter.Float64Histogram(
		"mcp.call.duration_ms",
		metric.WithDescription("Tool invocation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"cache.hits",
		metric.WithDescription("Cache lookups served from memory"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"cache.misses",
		metric.WithDescription("Cache lookups that fell through to upstream"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	upstreamCount, err := meter.Int64Counter(
		"clickup.requests",
		metric.WithDescription("Upstream API requests by method and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		callCount:     callCount,
		callErrors:    callErrors,
		callDuration:  callDuration,
		cacheHits:     cacheHits,
		cacheMisses:   cacheMisses,
		upstreamCount: upstreamCount,
	}, nil
}

func (m *metricsImpl) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("call.tool", meta.Tool),
	}
	if meta.Action != "" {
		attrs = append(attrs, attribute.String("call.action", meta.Action))
	}
	opt := metric.WithAttributes(attrs...)

	m.callCount.Add(ctx, 1, opt)
	if err != nil {
		m.callErrors.Add(ctx, 1, opt)
	}
	m.callDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordCache(ctx context.Context, namespace string, hit bool) {
	opt := metric.WithAttributes(attribute.String("cache.namespace", namespace))
	if hit {
		m.cacheHits.Add(ctx, 1, opt)
	} else {
		m.cacheMisses.Add(ctx, 1, opt)
	}
}

func (m *metricsImpl) RecordUpstream(ctx context.Context, method string, status int) {
	m.upstreamCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.Int("http.status", status),
	))
}

// NopMetrics returns a Metrics recorder that discards everything.
// Components take it as their default so metrics stay optional.
func NopMetrics() Metrics {
	return &noopMetrics{}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
}
func (m *noopMetrics) RecordCache(ctx context.Context, namespace string, hit bool) {}
func (m *noopMetrics) RecordUpstream(ctx context.Context, method string, status int) {}
