package agentloop

import (
	"context"
	"testing"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/session"
	"github.com/brandloom/agentforge/pkg/stream"
	"github.com/brandloom/agentforge/pkg/tenant"
	"github.com/brandloom/agentforge/pkg/tool"
	"github.com/brandloom/agentforge/pkg/tool/functiontool"
)

type echoArgs struct {
	Text string `json:"text"`
}

func newEchoTool() (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{Name: "echo", Description: "echoes its input"},
		func(ctx tool.Context, args echoArgs) (map[string]any, error) {
			return tool.Success(args.Text, "", nil), nil
		},
	)
}

type mockLLM struct {
	responses []mockLLMResponse
	callCount int
}

type mockLLMResponse struct {
	text  string
	calls []capability.ToolCall
	err   error
}

func (m *mockLLM) Generate(ctx context.Context, messages []capability.Message, tools []capability.ToolDefinition) (string, []capability.ToolCall, int, error) {
	if m.callCount >= len(m.responses) {
		return "default", nil, 1, nil
	}
	r := m.responses[m.callCount]
	m.callCount++
	if r.err != nil {
		return "", nil, 0, r.err
	}
	return r.text, r.calls, 1, nil
}

func (m *mockLLM) GenerateStreaming(ctx context.Context, messages []capability.Message, tools []capability.ToolDefinition, out chan<- capability.StreamChunk) ([]capability.ToolCall, int, error) {
	return nil, 0, nil
}

func (m *mockLLM) GenerateStructured(ctx context.Context, messages []capability.Message, cfg capability.StructuredOutputConfig) (string, int, error) {
	return "", 0, nil
}

func (m *mockLLM) CountTokens(text string) int { return len(text) }
func (m *mockLLM) ModelID() string             { return "mock-model" }

var _ capability.LLMPort = (*mockLLM)(nil)

func newTestLoop(llm *mockLLM) *Loop {
	return New(Services{
		LLM:      llm,
		Sessions: session.NewInMemoryStore(),
		Tools:    tool.NewRegistry(),
	})
}

func testTenant() tenant.Context {
	return tenant.Context{BrandID: "brand1", UserID: "user1"}
}

func TestLoop_SimpleTurnNoTools(t *testing.T) {
	llm := &mockLLM{responses: []mockLLMResponse{{text: "hello there"}}}
	l := newTestLoop(llm)
	rec := stream.NewRecorder()

	if err := l.Run(context.Background(), testTenant(), "system", "hi", rec); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var sawFinal bool
	for _, f := range rec.Frames {
		if f.Type == stream.FrameFinalResponse {
			sawFinal = true
			if f.Content != "hello there" {
				t.Errorf("final content = %q, want %q", f.Content, "hello there")
			}
		}
	}
	if !sawFinal {
		t.Fatal("expected a final_response frame")
	}
}

func TestLoop_ToolCallThenStop(t *testing.T) {
	echo, err := newEchoTool()
	if err != nil {
		t.Fatalf("build echo tool: %v", err)
	}

	llm := &mockLLM{responses: []mockLLMResponse{
		{text: "", calls: []capability.ToolCall{{ID: "c1", Name: "echo", Arguments: map[string]any{"text": "hi"}}}},
		{text: "done"},
	}}
	l := newTestLoop(llm)
	if err := l.svc.Tools.RegisterTool(echo); err != nil {
		t.Fatalf("register tool: %v", err)
	}

	rec := stream.NewRecorder()
	if err := l.Run(context.Background(), testTenant(), "system", "echo hi", rec); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var sawCall, sawResult, sawFinal bool
	for _, f := range rec.Frames {
		switch f.Type {
		case stream.FrameToolCall:
			sawCall = true
		case stream.FrameToolResult:
			sawResult = true
		case stream.FrameFinalResponse:
			sawFinal = true
		}
	}
	if !sawCall || !sawResult || !sawFinal {
		t.Fatalf("expected tool_call, tool_result, final_response frames; got %+v", rec.Frames)
	}
}

func TestLoop_LLMRetryExhausted(t *testing.T) {
	llm := &mockLLM{responses: []mockLLMResponse{
		{err: apperr.New(apperr.KindTransient, "transient")},
		{err: apperr.New(apperr.KindTransient, "transient")},
		{err: apperr.New(apperr.KindTransient, "transient")},
	}}
	l := newTestLoop(llm)
	rec := stream.NewRecorder()

	if err := l.Run(context.Background(), testTenant(), "system", "hi", rec); err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	var sawError bool
	for _, f := range rec.Frames {
		if f.Type == stream.FrameError {
			sawError = true
		}
	}
	if !sawError {
		t.Fatal("expected an error frame")
	}
}
