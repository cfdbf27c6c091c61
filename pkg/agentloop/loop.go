// Package agentloop implements the Agent Loop (C8): the reason/act
// driver described in spec §4.8.
//
// Grounded on pkg/agent/agent_a2a_methods.go's resumeTaskExecution
// iteration (the teacher's reasoning-state for-loop calling
// strategy.PrepareIteration/AfterIteration/ShouldStop around an LLM
// call and tool dispatch) and pkg/agent/task_status_retry.go's
// exponential-backoff pattern, narrowed from a pluggable multi-
// strategy engine to spec.md's one fixed loop shape, and from A2A's
// pb.Message/protocol.ToolCall types to the capability/tool/session
// packages' own.
package agentloop

import (
	"context"
	"log/slog"
	"time"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/media"
	"github.com/brandloom/agentforge/pkg/memory"
	"github.com/brandloom/agentforge/pkg/observability"
	"github.com/brandloom/agentforge/pkg/session"
	"github.com/brandloom/agentforge/pkg/stream"
	"github.com/brandloom/agentforge/pkg/tenant"
	"github.com/brandloom/agentforge/pkg/tool"
)

const (
	maxLLMRetries        = 3
	llmInitialBackoff    = 200 * time.Millisecond
	maxToolCallsPerTurn  = 64 // pathological-loop backstop, not a spec limit
	defaultRecallLimit   = 5
	defaultHistoryWindow = 20
)

// Services bundles the loop's dependencies, mirroring the teacher's
// AgentServices DI shape (pkg/reasoning/interfaces.go) narrowed to
// this domain's fixed concerns.
type Services struct {
	LLM       capability.LLMPort
	Sessions  session.Store
	Memory    memory.Store
	Resolver  *media.Resolver
	Tools     *tool.Registry
	Counter   session.TokenCounter
	MaxTokens int // session trim budget; 0 disables trimming
}

// Loop drives one turn of the reason/act cycle for a single tenant
// request.
type Loop struct {
	svc Services
}

func New(svc Services) *Loop {
	return &Loop{svc: svc}
}

// Run executes one full turn: load history, recall memories, resolve
// media, compose context, then iterate LLM generate / tool dispatch
// until the model stops requesting tools, emitting frames throughout
// (spec §4.8). It returns once finalResponse has been emitted.
func (l *Loop) Run(ctx context.Context, t tenant.Context, systemInstruction, userText string, emit stream.Emitter) error {
	tracer := observability.GetTracer("agentforge.agentloop")
	ctx, span := tracer.Start(ctx, observability.SpanAgentCall)
	defer span.End()

	key := t.SessionKey()

	sess, _, err := l.svc.Sessions.Get(ctx, key)
	if err != nil {
		return l.failTurn(emit, err)
	}
	if l.svc.MaxTokens > 0 && l.svc.Counter != nil {
		if err := l.svc.Sessions.Trim(ctx, key, l.svc.MaxTokens, l.svc.Counter); err != nil {
			slog.Warn("agentloop: session trim failed", "key", key, "error", err)
		}
		sess, _, err = l.svc.Sessions.Get(ctx, key)
		if err != nil {
			return l.failTurn(emit, err)
		}
	}

	var facts []memory.Fact
	if l.svc.Memory != nil {
		facts, err = l.svc.Memory.Recall(ctx, t.BrandID, t.UserID, userText, defaultRecallLimit)
		if err != nil {
			slog.Warn("agentloop: memory recall failed", "brandId", t.BrandID, "userId", t.UserID, "error", err)
		}
	}

	resolved := media.ResolvedSet{Method: media.MethodNone, UserIntent: userText}
	if l.svc.Resolver != nil {
		resolved = l.svc.Resolver.Resolve(ctx, t.BrandID, userText, t.Attachments, sess.RecentMediaTurns(defaultHistoryWindow))
	}
	t = t.WithResolvedMedia(resolved)
	if resolved.IsAmbiguous() {
		notice := "media reference is ambiguous"
		if err := l.svc.Sessions.Append(ctx, key, session.Event{
			Author: "system",
			Kind:   session.EventSystemNotice,
			Text:   notice,
		}); err != nil {
			slog.Warn("agentloop: append systemNotice failed", "key", key, "error", err)
		}
		_ = emit.Emit(stream.Frame{Type: stream.FrameLog, Content: notice})
	}

	composed := composeSystemMessage(systemInstruction, t, facts)

	userEvent := session.Event{
		Author: "user",
		Kind:   session.EventUserTurn,
		Text:   userText,
		Media:  resolved.Items,
	}
	if err := l.svc.Sessions.Append(ctx, key, userEvent); err != nil {
		return l.failTurn(emit, err)
	}
	_ = emit.Emit(stream.Frame{Type: stream.FrameLog, Content: "turn started"})

	messages := buildMessages(composed, sess, userText)
	toolDefs := toolDefinitions(l.svc.Tools)

	var (
		accumulatedText string
		extractedMedia  []extractedMediaURL
		cancelled       bool
	)

loop:
	for toolRounds := 0; toolRounds < maxToolCallsPerTurn; toolRounds++ {
		select {
		case <-ctx.Done():
			cancelled = true
			break loop
		default:
		}

		text, calls, _, err := l.generateWithRetry(ctx, messages, toolDefs)
		if err != nil {
			_ = emit.Emit(stream.Frame{Type: stream.FrameError, Message: err.Error()})
			_ = emit.Emit(stream.Frame{Type: stream.FrameFinalResponse, Content: err.Error()})
			return err
		}
		if text != "" {
			accumulatedText += text
			_ = emit.Emit(stream.Frame{Type: stream.FrameTextDelta, Delta: text})
		}
		messages = append(messages, capability.Message{Role: "assistant", Content: text, ToolCalls: calls})

		if len(calls) == 0 {
			break loop
		}

		for _, c := range calls {
			_ = emit.Emit(stream.Frame{Type: stream.FrameThought, Content: "calling " + c.Name})
			_ = emit.Emit(stream.Frame{Type: stream.FrameToolCall, Name: c.Name, Args: c.Arguments})

			result := l.svc.Tools.Dispatch(tool.NewContext(ctx, t, c.ID), tool.Call{ID: c.ID, Name: c.Name, Args: c.Arguments})

			_ = emit.Emit(stream.Frame{
				Type:   stream.FrameToolResult,
				Name:   c.Name,
				Status: stringField(result.Envelope, "status"),
				Result: result.Envelope,
			})

			if m, ok := mediaURLFromEnvelope(result.Envelope); ok {
				extractedMedia = append(extractedMedia, m)
			}

			callEvent := session.Event{
				Author:   "assistant",
				Kind:     session.EventToolCall,
				ToolCall: &session.ToolCallPayload{ID: c.ID, Name: c.Name, Args: c.Arguments},
			}
			resultEvent := session.Event{
				Author: "assistant",
				Kind:   session.EventToolResult,
				ToolResult: &session.ToolResultPayload{
					ToolCallID: c.ID,
					Status:     stringField(result.Envelope, "status"),
					Content:    result.Envelope,
					Message:    stringField(result.Envelope, "message"),
				},
			}
			if err := l.svc.Sessions.Append(ctx, key, callEvent, resultEvent); err != nil {
				slog.Warn("agentloop: failed to append tool call/result events", "error", err)
			}

			messages = append(messages, capability.Message{
				Role:       "tool",
				Content:    envelopeToText(result.Envelope),
				ToolCallID: c.ID,
				Name:       c.Name,
			})
		}
	}

	if cancelled {
		if accumulatedText != "" {
			_ = l.svc.Sessions.Append(ctx, key, session.Event{Author: "assistant", Kind: session.EventModelText, Text: accumulatedText})
		}
		return ctx.Err()
	}

	if err := l.svc.Sessions.Append(ctx, key, session.Event{Author: "assistant", Kind: session.EventModelText, Text: accumulatedText}); err != nil {
		slog.Warn("agentloop: failed to append final model text", "error", err)
	}

	if l.svc.Memory != nil {
		go func() {
			bgCtx := context.Background()
			if _, err := l.svc.Memory.ExtractAndSave(bgCtx, t.BrandID, t.UserID, userText+"\n"+accumulatedText); err != nil {
				slog.Warn("agentloop: background memory extraction failed", "error", err)
			}
		}()
	}

	finalFrame := stream.Frame{Type: stream.FrameFinalResponse, Content: accumulatedText}
	groupMediaByKind(extractedMedia, &finalFrame)
	return emit.Emit(finalFrame)
}

func (l *Loop) failTurn(emit stream.Emitter, err error) error {
	_ = emit.Emit(stream.Frame{Type: stream.FrameError, Message: err.Error()})
	return err
}

// generateWithRetry makes up to maxLLMRetries attempts at the LLM
// call with exponential backoff between them (spec §4.8 Failures),
// retrying only transient failures (apperr.IsRetryable); any other
// error is returned at once. Grounded on
// pkg/agent/task_status_retry.go's backoff loop.
func (l *Loop) generateWithRetry(ctx context.Context, messages []capability.Message, tools []capability.ToolDefinition) (string, []capability.ToolCall, int, error) {
	var lastErr error
	backoff := llmInitialBackoff
	for attempt := 0; attempt < maxLLMRetries; attempt++ {
		text, calls, tokens, err := l.svc.LLM.Generate(ctx, messages, tools)
		if err == nil {
			return text, calls, tokens, nil
		}
		lastErr = err
		if !apperr.IsRetryable(err) {
			break
		}
		if attempt < maxLLMRetries-1 {
			select {
			case <-ctx.Done():
				return "", nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return "", nil, 0, lastErr
}

func toolDefinitions(reg *tool.Registry) []capability.ToolDefinition {
	if reg == nil {
		return nil
	}
	defs := reg.Definitions(tool.AllowAll)
	out := make([]capability.ToolDefinition, len(defs))
	for i, d := range defs {
		out[i] = capability.ToolDefinition{Name: d.Name, Description: d.Description, Parameters: d.Parameters}
	}
	return out
}

func buildMessages(systemMessage string, sess session.Session, userText string) []capability.Message {
	messages := []capability.Message{{Role: "system", Content: systemMessage}}
	for _, e := range sess.Events {
		switch e.Kind {
		case session.EventUserTurn:
			messages = append(messages, capability.Message{Role: "user", Content: e.Text})
		case session.EventModelText:
			messages = append(messages, capability.Message{Role: "assistant", Content: e.Text})
		case session.EventToolResult:
			if e.ToolResult != nil {
				messages = append(messages, capability.Message{Role: "tool", Content: e.ToolResult.Message, ToolCallID: e.ToolResult.ToolCallID})
			}
		}
	}
	messages = append(messages, capability.Message{Role: "user", Content: userText})
	return messages
}

func composeSystemMessage(systemInstruction string, t tenant.Context, facts []memory.Fact) string {
	out := systemInstruction
	if t.Team.BrandVoice != "" {
		out += "\n\nBrand voice: " + t.Team.BrandVoice
	}
	if t.Team.VisualGuidelines != "" {
		out += "\nVisual guidelines: " + t.Team.VisualGuidelines
	}
	for _, f := range facts {
		out += "\nKnown fact about this user: " + f.Content
	}
	if t.Resolved.Method != media.MethodNone && len(t.Resolved.Items) > 0 {
		out += "\nResolved media in scope: "
		for _, item := range t.Resolved.Items {
			out += item.URI + " "
		}
	}
	return out
}

func stringField(envelope map[string]any, key string) string {
	if v, ok := envelope[key].(string); ok {
		return v
	}
	return ""
}

func envelopeToText(envelope map[string]any) string {
	if msg := stringField(envelope, "message"); msg != "" {
		return msg
	}
	return stringField(envelope, "status")
}

// extractedMediaURL is one image/video/music URL produced by a tool
// during the turn, tagged by which envelope field it came from so
// the final frame can preserve the singular/plural duality of
// spec §4.4 per kind rather than collapsing every kind into one list.
type extractedMediaURL struct {
	field string
	url   string
}

func mediaURLFromEnvelope(envelope map[string]any) (extractedMediaURL, bool) {
	for _, key := range []string{"imageUrl", "videoUrl", "musicUrl"} {
		if v, ok := envelope[key].(string); ok && v != "" {
			return extractedMediaURL{field: key, url: v}, true
		}
	}
	return extractedMediaURL{}, false
}

func groupMediaByKind(media []extractedMediaURL, frame *stream.Frame) {
	for _, m := range media {
		switch m.field {
		case "imageUrl":
			frame.ImageURLs = append(frame.ImageURLs, m.url)
		case "videoUrl":
			frame.VideoURLs = append(frame.VideoURLs, m.url)
		case "musicUrl":
			frame.MusicURLs = append(frame.MusicURLs, m.url)
		}
	}
}
