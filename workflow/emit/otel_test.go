package emit

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer(t *testing.T) (*tracetest.InMemoryExporter, *OTelEmitter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, NewOTelEmitter(otel.Tracer("test"))
}

func TestOTelEmitterSpanAttributes(t *testing.T) {
	exporter, emitter := newRecordingTracer(t)

	emitter.Emit(Event{
		RunID:  "run-001",
		Step:   3,
		NodeID: "review",
		Msg:    "node completed",
		Meta: map[string]interface{}{
			"duration_ms": int64(42),
			"severity":    "medium",
		},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]

	if span.Name != "node completed" {
		t.Errorf("span name = %q", span.Name)
	}
	attrs := attributeMap(span.Attributes)
	if got := attrs["run_id"]; got != "run-001" {
		t.Errorf("run_id = %v", got)
	}
	if got := attrs["step"]; got != int64(3) {
		t.Errorf("step = %v", got)
	}
	if got := attrs["node_id"]; got != "review" {
		t.Errorf("node_id = %v", got)
	}
	if got := attrs["meta.severity"]; got != "medium" {
		t.Errorf("meta.severity = %v", got)
	}
	if got := attrs["meta.duration_ms"]; got != int64(42) {
		t.Errorf("meta.duration_ms = %v", got)
	}
	if !span.EndTime.After(span.StartTime) {
		t.Error("span was not ended")
	}
}

func TestOTelEmitterErrorStatus(t *testing.T) {
	exporter, emitter := newRecordingTracer(t)

	emitter.Emit(Event{
		RunID:  "run-001",
		Step:   1,
		NodeID: "draft",
		Msg:    "node degraded",
		Meta:   map[string]interface{}{"error": "gateway unavailable"},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]

	if span.Status.Code != codes.Error {
		t.Errorf("status = %v, want error", span.Status.Code)
	}
	if span.Status.Description != "gateway unavailable" {
		t.Errorf("description = %q", span.Status.Description)
	}
	if len(span.Events) == 0 {
		t.Error("expected a recorded error event")
	}
}

func TestOTelEmitterNilMeta(t *testing.T) {
	exporter, emitter := newRecordingTracer(t)

	emitter.Emit(Event{RunID: "run-001", Step: 1, NodeID: "collect", Msg: "node completed"})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if got := attributeMap(spans[0].Attributes)["run_id"]; got != "run-001" {
		t.Errorf("run_id = %v", got)
	}
}

func attributeMap(attrs []attribute.KeyValue) map[string]interface{} {
	m := make(map[string]interface{})
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}
