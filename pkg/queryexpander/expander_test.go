package queryexpander

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brandloom/agentforge/pkg/capability"
)

type stubLLM struct {
	text  string
	err   error
	delay time.Duration
}

func (s *stubLLM) Generate(ctx context.Context, messages []capability.Message, tools []capability.ToolDefinition) (string, []capability.ToolCall, int, error) {
	return s.text, nil, 0, s.err
}

func (s *stubLLM) GenerateStreaming(ctx context.Context, messages []capability.Message, tools []capability.ToolDefinition, out chan<- capability.StreamChunk) ([]capability.ToolCall, int, error) {
	return nil, 0, nil
}

func (s *stubLLM) GenerateStructured(ctx context.Context, messages []capability.Message, cfg capability.StructuredOutputConfig) (string, int, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", 0, ctx.Err()
		}
	}
	return s.text, 0, s.err
}

func (s *stubLLM) CountTokens(text string) int { return len(text) }
func (s *stubLLM) ModelID() string             { return "stub" }

var _ capability.LLMPort = (*stubLLM)(nil)

func TestExpand_ParsesJSONArray(t *testing.T) {
	llm := &stubLLM{text: `Here you go: ["summer sale", "seasonal promotion"]`}
	e := New(llm)

	got := e.Expand(context.Background(), "summer discount", 3)
	if len(got) != 3 || got[0] != "summer discount" {
		t.Fatalf("unexpected expansion: %+v", got)
	}
}

func TestExpand_DegradesOnError(t *testing.T) {
	llm := &stubLLM{err: errors.New("boom")}
	e := New(llm)

	got := e.Expand(context.Background(), "summer discount", 3)
	if len(got) != 1 || got[0] != "summer discount" {
		t.Fatalf("expected degrade-to-original, got %+v", got)
	}
}

func TestExpand_DegradesOnTimeout(t *testing.T) {
	llm := &stubLLM{text: `["a","b"]`, delay: 50 * time.Millisecond}
	e := New(llm).WithTimeout(1 * time.Millisecond)

	got := e.Expand(context.Background(), "summer discount", 3)
	if len(got) != 1 || got[0] != "summer discount" {
		t.Fatalf("expected degrade-to-original on timeout, got %+v", got)
	}
}

func TestExpand_KEqualsOneReturnsOriginalOnly(t *testing.T) {
	llm := &stubLLM{text: `["a","b","c"]`}
	e := New(llm)

	got := e.Expand(context.Background(), "q", 1)
	if len(got) != 1 || got[0] != "q" {
		t.Fatalf("expected [q], got %+v", got)
	}
}
