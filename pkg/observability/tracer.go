// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with the span helpers the
// request coordinator and agent loop need (spec §6's tracing
// surface), grounded on the teacher's v2/observability/tracer.go,
// narrowed to this domain's spans — its RAG-pipeline span helpers
// (StartRAGSearch, StartRAGIndex, ...) are dropped since this service
// has no RAG pipeline of its own.
type Tracer struct {
	provider       *sdktrace.TracerProvider
	tracer         trace.Tracer
	debugExporter  *DebugExporter
	capturePayload bool
	serviceName    string
}

// TracerOption configures a Tracer.
type TracerOption func(*Tracer)

// WithDebugExporter registers a debug exporter for in-process span
// inspection (e.g. an admin endpoint), in addition to the configured
// network exporter.
func WithDebugExporter(exporter *DebugExporter) TracerOption {
	return func(t *Tracer) { t.debugExporter = exporter }
}

// WithCapturePayloads enables capturing full LLM/tool request and
// response bodies as span attributes.
func WithCapturePayloads(capture bool) TracerOption {
	return func(t *Tracer) { t.capturePayload = capture }
}

// NewTracer builds a Tracer from cfg, or returns (nil, nil) when
// tracing is disabled.
func NewTracer(ctx context.Context, cfg *TracingConfig, opts ...TracerOption) (*Tracer, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	cfg.SetDefaults()

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t := &Tracer{
		provider:    provider,
		tracer:      provider.Tracer(cfg.ServiceName),
		serviceName: cfg.ServiceName,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.debugExporter != nil {
		provider.RegisterSpanProcessor(sdktrace.NewSimpleSpanProcessor(t.debugExporter))
	}
	return t, nil
}

// createExporter picks a span exporter by cfg.Exporter. The OTLP path
// uses otlptracehttp rather than the gRPC transport: this service has
// no other gRPC surface (spec §4.9's A2A bridge is JSON-RPC over
// HTTP), so the HTTP OTLP exporter avoids pulling in a gRPC client for
// tracing alone.
func createExporter(ctx context.Context, cfg *TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp", "jaeger", "zipkin":
		return createOTLPExporter(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported exporter: %s", cfg.Exporter)
	}
}

func createOTLPExporter(ctx context.Context, cfg *TracingConfig) (*otlptrace.Exporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithTimeout(cfg.Timeout),
	}
	if cfg.IsInsecure() {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	return otlptracehttp.New(ctx, opts...)
}

// Start begins a new span named spanName.
func (t *Tracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if t == nil || t.tracer == nil {
		return ctx, noopSpan()
	}
	return t.tracer.Start(ctx, spanName, opts...)
}

// StartAgentRun begins a span for one agent-loop turn (spec §4.1).
func (t *Tracer) StartAgentRun(ctx context.Context, agentName, sessionID, userID, invocationID string) (context.Context, trace.Span) {
	return t.Start(ctx, SpanAgentRun,
		trace.WithAttributes(
			attribute.String(AttrAgentName, agentName),
			attribute.String(AttrSessionID, sessionID),
			attribute.String(AttrUserID, userID),
			attribute.String(AttrInvocationID, invocationID),
		),
	)
}

// StartLLMCall begins a span for one LLM request.
func (t *Tracer) StartLLMCall(ctx context.Context, model string, maxTokens int, temperature, topP float64) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrGenAIOperationName, OpChat),
		attribute.String(AttrGenAIRequestModel, model),
	}
	if maxTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrGenAIRequestMaxTokens, maxTokens))
	}
	if temperature > 0 {
		attrs = append(attrs, attribute.Float64(AttrGenAIRequestTemperature, temperature))
	}
	if topP > 0 {
		attrs = append(attrs, attribute.Float64(AttrGenAIRequestTopP, topP))
	}
	return t.Start(ctx, SpanLLMCall, trace.WithAttributes(attrs...))
}

// StartToolExecution begins a span for one tool call.
func (t *Tracer) StartToolExecution(ctx context.Context, toolName, toolDescription, callID string) (context.Context, trace.Span) {
	return t.Start(ctx, SpanToolExecution,
		trace.WithAttributes(
			attribute.String(AttrGenAIOperationName, OpToolCall),
			attribute.String(AttrGenAIToolName, toolName),
			attribute.String(AttrGenAIToolDescription, toolDescription),
			attribute.String(AttrGenAIToolCallID, callID),
		),
	)
}

// StartMemorySearch begins a span for a long-term-memory recall.
func (t *Tracer) StartMemorySearch(ctx context.Context, query string, limit int) (context.Context, trace.Span) {
	return t.Start(ctx, SpanMemorySearch,
		trace.WithAttributes(
			attribute.String("query", query),
			attribute.Int("limit", limit),
		),
	)
}

// AddLLMUsage records token usage on span.
func (t *Tracer) AddLLMUsage(span trace.Span, inputTokens, outputTokens int) {
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.Int(AttrGenAIUsageInputTokens, inputTokens),
		attribute.Int(AttrGenAIUsageOutputTokens, outputTokens),
	)
}

// AddLLMFinishReason records the LLM's stop reason on span.
func (t *Tracer) AddLLMFinishReason(span trace.Span, reason string) {
	if span == nil {
		return
	}
	span.SetAttributes(attribute.String(AttrGenAIResponseFinishReason, reason))
}

// AddPayload records the LLM request/response bodies on span, if
// payload capture is enabled.
func (t *Tracer) AddPayload(span trace.Span, request, response string) {
	if span == nil || t == nil || !t.capturePayload {
		return
	}
	if request != "" {
		span.SetAttributes(attribute.String(AttrLLMRequest, request))
	}
	if response != "" {
		span.SetAttributes(attribute.String(AttrLLMResponse, response))
	}
}

// AddToolPayload records a tool call's args/response on span, if
// payload capture is enabled.
func (t *Tracer) AddToolPayload(span trace.Span, args, response string) {
	if span == nil || t == nil || !t.capturePayload {
		return
	}
	if args != "" {
		span.SetAttributes(attribute.String(AttrToolArgs, args))
	}
	if response != "" {
		span.SetAttributes(attribute.String(AttrToolResponse, response))
	}
}

// RecordError records err on span.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(
		attribute.String(AttrErrorType, fmt.Sprintf("%T", err)),
		attribute.String(AttrErrorMessage, err.Error()),
	)
}

// DebugExporter returns the debug exporter, or nil if none is
// configured.
func (t *Tracer) DebugExporter() *DebugExporter {
	if t == nil {
		return nil
	}
	return t.debugExporter
}

// Shutdown flushes and stops the underlying tracer provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// GetTracer returns a bare OTel tracer for call sites that don't need
// the Tracer wrapper's helpers. Safe to call with no TracerProvider
// ever configured: otel.Tracer falls back to a no-op implementation.
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

func noopSpan() trace.Span {
	_, span := trace.NewNoopTracerProvider().Tracer("noop").Start(context.Background(), "noop")
	return span
}
