package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewMetricsRecordsAgentCall(t *testing.T) {
	m, err := NewMetrics(&MetricsConfig{Enabled: true, Namespace: "agentforge_test"})
	require.NoError(t, err)

	m.RecordAgentCall("brand-a", "chat", 100*time.Millisecond)
	m.RecordAgentError("brand-a", "chat", "timeout")
	m.IncAgentActiveRuns("brand-a")
	m.DecAgentActiveRuns("brand-a")
}

func TestNoopMetricsSatisfiesRecorder(t *testing.T) {
	var r Recorder = NoopMetrics{}
	r.RecordAgentCall("brand-a", "chat", time.Millisecond)
	r.RecordLLMTokens("gpt-4o", "openai", 10, 5)
	r.RecordHTTPRequest("GET", "/v1/runs", 200, time.Millisecond, 0, 0)
}

func TestNoopTracerIsUsableWithoutAProvider(t *testing.T) {
	var tr NoopTracer
	ctx, span := tr.Start(context.Background(), SpanAgentCall)
	defer span.End()
	tr.AddLLMUsage(span, 10, 5)
	tr.RecordError(span, nil)
	require.NotNil(t, ctx)
}

func TestGetTracerFallsBackToNoop(t *testing.T) {
	// otel.Tracer returns a usable no-op tracer even when no
	// TracerProvider has ever been configured (spec §6: tracing is
	// optional and must never block a request).
	tracer := GetTracer("agentforge.test")
	_, span := tracer.Start(context.Background(), "test")
	defer span.End()
}

func TestNewTracerDisabledReturnsNil(t *testing.T) {
	tr, err := NewTracer(context.Background(), &TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.Nil(t, tr)
}
