package llms

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkoukk/tiktoken-go"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
)

// OpenAIConfig configures an OpenAI-backed LLMPort.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
	BaseURL   string
}

// OpenAI implements capability.LLMPort over the official Chat
// Completions SDK.
type OpenAI struct {
	client openai.Client
	model  string
	max    int64
	enc    *tiktoken.Tiktoken
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, apperr.New(apperr.KindValidation, "openai: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	enc, err := tiktoken.EncodingForModel(cfg.Model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "openai: load tokenizer", err)
		}
	}
	return &OpenAI{client: openai.NewClient(opts...), model: cfg.Model, max: cfg.MaxTokens, enc: enc}, nil
}

func (o *OpenAI) ModelID() string { return o.model }

func (o *OpenAI) CountTokens(text string) int {
	return len(o.enc.Encode(text, nil, nil))
}

func (o *OpenAI) Generate(ctx context.Context, messages []capability.Message, tools []capability.ToolDefinition) (string, []capability.ToolCall, int, error) {
	params := o.buildParams(messages, tools)

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", nil, 0, wrapOpenAIErr(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, int(resp.Usage.TotalTokens), apperr.New(apperr.KindPermanent, "openai: empty choices")
	}
	choice := resp.Choices[0]
	calls := toCapabilityToolCalls(choice.Message.ToolCalls)
	return choice.Message.Content, calls, int(resp.Usage.TotalTokens), nil
}

func (o *OpenAI) GenerateStreaming(ctx context.Context, messages []capability.Message, tools []capability.ToolDefinition, out chan<- capability.StreamChunk) ([]capability.ToolCall, int, error) {
	params := o.buildParams(messages, tools)
	stream := o.client.Chat.Completions.NewStreaming(ctx, params)

	var acc openai.ChatCompletionAccumulator
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			out <- capability.StreamChunk{Type: "text", Text: chunk.Choices[0].Delta.Content}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, 0, wrapOpenAIErr(err)
	}
	if len(acc.Choices) == 0 {
		return nil, int(acc.Usage.TotalTokens), nil
	}
	calls := toCapabilityToolCalls(acc.Choices[0].Message.ToolCalls)
	return calls, int(acc.Usage.TotalTokens), nil
}

func (o *OpenAI) GenerateStructured(ctx context.Context, messages []capability.Message, cfg capability.StructuredOutputConfig) (string, int, error) {
	params := o.buildParams(messages, nil)
	schemaJSON, err := json.Marshal(cfg.Schema)
	if err != nil {
		return "", 0, apperr.Wrap(apperr.KindValidation, "openai: marshal structured schema", err)
	}
	var schema map[string]any
	_ = json.Unmarshal(schemaJSON, &schema)

	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   "structured_output",
				Schema: schema,
				Strict: openai.Bool(true),
			},
		},
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", 0, wrapOpenAIErr(err)
	}
	if len(resp.Choices) == 0 {
		return "", int(resp.Usage.TotalTokens), apperr.New(apperr.KindPermanent, "openai: empty choices")
	}
	return resp.Choices[0].Message.Content, int(resp.Usage.TotalTokens), nil
}

func (o *OpenAI) buildParams(messages []capability.Message, tools []capability.ToolDefinition) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{Model: o.model}
	if o.max > 0 {
		params.MaxTokens = openai.Int(o.max)
	}

	for _, m := range messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		case "tool":
			params.Messages = append(params.Messages, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	for _, t := range tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(t.Parameters),
			},
		})
	}
	return params
}

func toCapabilityToolCalls(calls []openai.ChatCompletionMessageToolCall) []capability.ToolCall {
	var out []capability.ToolCall
	for _, c := range calls {
		var args map[string]any
		_ = json.Unmarshal([]byte(c.Function.Arguments), &args)
		out = append(out, capability.ToolCall{ID: c.ID, Name: c.Function.Name, Arguments: args, RawArgs: c.Function.Arguments})
	}
	return out
}

func wrapOpenAIErr(err error) error {
	var apiErr *openai.Error
	if ok := asOpenAIError(err, &apiErr); ok && (apiErr.StatusCode == 429 || apiErr.StatusCode >= 500) {
		return apperr.Wrap(apperr.KindTransient, "openai request failed", err)
	}
	return apperr.Wrap(apperr.KindPermanent, "openai request failed", err)
}

func asOpenAIError(err error, target **openai.Error) bool {
	apiErr, ok := err.(*openai.Error)
	if !ok {
		return false
	}
	*target = apiErr
	return true
}
