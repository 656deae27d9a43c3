package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

type recordedCall struct {
	meta CallMeta
	err  error
}

type fakeMetrics struct {
	calls     []recordedCall
	cache     []string
	upstreams []string
}

func (m *fakeMetrics) RecordCall(ctx context.Context, meta CallMeta, d time.Duration, err error) {
	m.calls = append(m.calls, recordedCall{meta: meta, err: err})
}
func (m *fakeMetrics) RecordCache(ctx context.Context, namespace string, hit bool) {
	m.cache = append(m.cache, namespace)
}
func (m *fakeMetrics) RecordUpstream(ctx context.Context, method string, status int) {
	m.upstreams = append(m.upstreams, method)
}

func TestMiddleware_WrapSuccess(t *testing.T) {
	var buf bytes.Buffer
	metrics := &fakeMetrics{}
	mw := NewMiddleware(newNoopTracer(), metrics, NewLoggerWithWriter("info", &buf))

	var sawID string
	fn := mw.Wrap(func(ctx context.Context, meta CallMeta, args any) (any, error) {
		sawID = CorrelationID(ctx)
		return "ok", nil
	})

	result, err := fn(context.Background(), CallMeta{Tool: "tasks", Action: "get"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %v, want ok", result)
	}
	if sawID == "" {
		t.Error("wrapped function saw no correlation ID")
	}
	if len(metrics.calls) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(metrics.calls))
	}
	if metrics.calls[0].meta.Tool != "tasks" || metrics.calls[0].err != nil {
		t.Errorf("recorded call = %+v", metrics.calls[0])
	}

	entries := decodeLines(t, &buf)
	if len(entries) != 1 || entries[0]["msg"] != "tool call completed" {
		t.Errorf("unexpected log output: %v", entries)
	}
	if entries[0]["call.id"] != sawID {
		t.Errorf("log call.id = %v, want %v", entries[0]["call.id"], sawID)
	}
}

func TestMiddleware_WrapError(t *testing.T) {
	var buf bytes.Buffer
	metrics := &fakeMetrics{}
	mw := NewMiddleware(newNoopTracer(), metrics, NewLoggerWithWriter("info", &buf))

	boom := errors.New("upstream exploded")
	fn := mw.Wrap(func(ctx context.Context, meta CallMeta, args any) (any, error) {
		return nil, boom
	})

	_, err := fn(context.Background(), CallMeta{Tool: "tasks", Action: "delete"}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("error not propagated unchanged: %v", err)
	}
	if metrics.calls[0].err == nil {
		t.Error("metrics did not record the error")
	}

	entries := decodeLines(t, &buf)
	if entries[0]["msg"] != "tool call failed" {
		t.Errorf("msg = %v, want tool call failed", entries[0]["msg"])
	}
	if entries[0]["error"] != "upstream exploded" {
		t.Errorf("error field = %v", entries[0]["error"])
	}
}

func TestMiddleware_KeepsSuppliedCorrelationID(t *testing.T) {
	mw := NewMiddleware(newNoopTracer(), &fakeMetrics{}, NopLogger())

	var sawID string
	fn := mw.Wrap(func(ctx context.Context, meta CallMeta, args any) (any, error) {
		sawID = meta.CorrelationID
		return nil, nil
	})

	fn(context.Background(), CallMeta{Tool: "t", CorrelationID: "fixed"}, nil)
	if sawID != "fixed" {
		t.Errorf("correlation ID = %q, want fixed", sawID)
	}
}

func TestCorrelationID_OutsideCall(t *testing.T) {
	if id := CorrelationID(context.Background()); id != "" {
		t.Errorf("expected empty ID outside a wrapped call, got %q", id)
	}
}

func TestCallMeta_SpanName(t *testing.T) {
	if got := (CallMeta{Tool: "tasks", Action: "move"}).SpanName(); got != "mcp.call.tasks.move" {
		t.Errorf("SpanName = %q", got)
	}
	if got := (CallMeta{Tool: "workspace"}).SpanName(); got != "mcp.call.workspace" {
		t.Errorf("SpanName = %q", got)
	}
}
