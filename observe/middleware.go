package observe

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ExecuteFunc is the signature the Middleware wraps: one tool
// invocation from arguments to result.
type ExecuteFunc func(ctx context.Context, meta CallMeta, args any) (any, error)

// Middleware wraps tool invocations with tracing, metrics, and logging.
// Every invocation gets a correlation ID that links its log lines, its
// span, and the error payload the caller sees.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Errors: errors from the wrapped function are recorded and
//     propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

type correlationKey struct{}

// CorrelationID returns the invocation's correlation ID, or "" outside
// a wrapped call.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Wrap wraps an ExecuteFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, meta CallMeta, args any) (any, error) {
		if meta.CorrelationID == "" {
			meta.CorrelationID = uuid.NewString()
		}
		ctx = context.WithValue(ctx, correlationKey{}, meta.CorrelationID)

		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		result, err := fn(ctx, meta, args)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordCall(ctx, meta, duration, err)

		callLogger := m.logger.WithCall(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			callLogger.Error(ctx, "tool call failed", fields...)
		} else {
			callLogger.Info(ctx, "tool call completed", fields...)
		}

		return result, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// MetricsFromObserver builds the Metrics recorder alone, for components
// that report cache and upstream traffic outside a call wrapper.
func MetricsFromObserver(obs Observer) (Metrics, error) {
	if obs == nil {
		return &noopMetrics{}, nil
	}
	return newMetrics(obs.Meter())
}
