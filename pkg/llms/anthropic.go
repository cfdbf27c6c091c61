// Package llms provides capability.LLMPort adapters over concrete
// model provider SDKs (spec §4.1: Capability Ports).
package llms

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkoukk/tiktoken-go"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
)

// AnthropicConfig configures an Anthropic-backed LLMPort.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
	BaseURL   string
}

// Anthropic implements capability.LLMPort over the official Claude SDK.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	enc       *tiktoken.Tiktoken
}

// NewAnthropic builds an Anthropic-backed LLMPort. Token counting uses
// the cl100k_base encoding as an estimate — Anthropic does not expose
// a public tokenizer, so this is deliberately approximate and only
// used for session-budget trimming (C5), never for billing.
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, apperr.New(apperr.KindValidation, "anthropic: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "anthropic: load tokenizer", err)
	}

	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		enc:       enc,
	}, nil
}

func (a *Anthropic) ModelID() string { return a.model }

func (a *Anthropic) CountTokens(text string) int {
	return len(a.enc.Encode(text, nil, nil))
}

func (a *Anthropic) Generate(ctx context.Context, messages []capability.Message, tools []capability.ToolDefinition) (string, []capability.ToolCall, int, error) {
	params := a.buildParams(messages, tools)

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", nil, 0, wrapAnthropicErr(err)
	}

	text, calls := splitAnthropicContent(resp.Content)
	tokens := int(resp.Usage.InputTokens + resp.Usage.OutputTokens)
	return text, calls, tokens, nil
}

func (a *Anthropic) GenerateStreaming(ctx context.Context, messages []capability.Message, tools []capability.ToolDefinition, out chan<- capability.StreamChunk) ([]capability.ToolCall, int, error) {
	params := a.buildParams(messages, tools)
	stream := a.client.Messages.NewStreaming(ctx, params)

	var acc anthropic.Message
	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			return nil, 0, apperr.Wrap(apperr.KindTransient, "anthropic: accumulate stream event", err)
		}

		switch delta := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta.Delta.Text != "" {
				out <- capability.StreamChunk{Type: "text", Text: delta.Delta.Text}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, 0, wrapAnthropicErr(err)
	}

	text, calls := splitAnthropicContent(acc.Content)
	_ = text
	tokens := int(acc.Usage.InputTokens + acc.Usage.OutputTokens)
	return calls, tokens, nil
}

func (a *Anthropic) GenerateStructured(ctx context.Context, messages []capability.Message, cfg capability.StructuredOutputConfig) (string, int, error) {
	schemaJSON, err := json.Marshal(cfg.Schema)
	if err != nil {
		return "", 0, apperr.Wrap(apperr.KindValidation, "anthropic: marshal structured schema", err)
	}

	// Claude has no native JSON-mode: constrain via a single forced
	// tool call whose input schema is the requested schema, then read
	// the tool_use input back out as the structured payload.
	var schema map[string]any
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return "", 0, apperr.Wrap(apperr.KindValidation, "anthropic: invalid structured schema", err)
	}

	params := a.buildParams(messages, nil)
	params.Tools = []anthropic.ToolUnionParam{{
		OfTool: &anthropic.ToolParam{
			Name:        "emit_structured_output",
			InputSchema: anthropic.ToolInputSchemaParam{Properties: schema["properties"]},
		},
	}}
	params.ToolChoice = anthropic.ToolChoiceParamOfTool("emit_structured_output")

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", 0, wrapAnthropicErr(err)
	}

	for _, block := range resp.Content {
		if tu := block.AsToolUse(); tu.Type == "tool_use" {
			raw, _ := json.Marshal(tu.Input)
			return string(raw), int(resp.Usage.InputTokens + resp.Usage.OutputTokens), nil
		}
	}
	return "", int(resp.Usage.InputTokens + resp.Usage.OutputTokens), apperr.New(apperr.KindPermanent, "anthropic: model did not emit structured output")
}

func (a *Anthropic) buildParams(messages []capability.Message, tools []capability.ToolDefinition) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
	}

	for _, m := range messages {
		switch m.Role {
		case "system":
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		case "tool":
			params.Messages = append(params.Messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	for _, t := range tools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{Properties: t.Parameters["properties"]},
			},
		})
	}
	return params
}

func splitAnthropicContent(blocks []anthropic.ContentBlockUnion) (string, []capability.ToolCall) {
	var text string
	var calls []capability.ToolCall
	for _, block := range blocks {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += b.Text
		case anthropic.ToolUseBlock:
			var args map[string]any
			raw, _ := json.Marshal(b.Input)
			_ = json.Unmarshal(raw, &args)
			calls = append(calls, capability.ToolCall{ID: b.ID, Name: b.Name, Arguments: args, RawArgs: string(raw)})
		}
	}
	return text, calls
}

func wrapAnthropicErr(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && (apiErr.StatusCode == 429 || apiErr.StatusCode >= 500) {
		return apperr.Wrap(apperr.KindTransient, "anthropic request failed", err)
	}
	return apperr.Wrap(apperr.KindPermanent, "anthropic request failed", err)
}
