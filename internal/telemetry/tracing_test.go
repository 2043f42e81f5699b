package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestNewTracerNoopWithoutEndpoint(t *testing.T) {
	tracer, shutdown := NewTracer(TraceConfig{ServiceName: "monad-test"})
	defer shutdown(context.Background())

	ctx, span := tracer.StartTurn(context.Background(), "chat-engine", "sess-1")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	span.End()
}

func TestTracerToolAndSchedulerSpans(t *testing.T) {
	tracer, shutdown := NewTracer(TraceConfig{})
	defer shutdown(context.Background())

	_, toolSpan := tracer.StartToolDispatch(context.Background(), "echo")
	toolSpan.End()

	_, tickSpan := tracer.StartSchedulerTick(context.Background())
	tickSpan.End()
}

func TestNilTracerIsNoop(t *testing.T) {
	var tracer *Tracer
	ctx := context.Background()

	gotCtx, span := tracer.StartTurn(ctx, "chat-engine", "sess-1")
	if gotCtx != ctx {
		t.Fatal("expected unchanged context from nil tracer")
	}
	span.End()

	_, span = tracer.StartToolDispatch(ctx, "echo")
	span.End()

	_, span = tracer.StartSchedulerTick(ctx)
	span.End()
}

func TestRecordErrorSetsStatus(t *testing.T) {
	tracer, shutdown := NewTracer(TraceConfig{})
	defer shutdown(context.Background())

	_, span := tracer.StartTurn(context.Background(), "reasoning-engine", "sess-1")
	RecordError(span, errors.New("boom"))
	span.End()

	RecordError(span, nil)
}
