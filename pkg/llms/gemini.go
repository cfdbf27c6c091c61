package llms

import (
	"context"
	"encoding/json"

	"google.golang.org/genai"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
)

// GeminiConfig configures a Gemini-backed LLMPort.
type GeminiConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// Gemini implements capability.LLMPort over google.golang.org/genai.
type Gemini struct {
	client *genai.Client
	model  string
	max    int64
}

func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, apperr.New(apperr.KindValidation, "gemini: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "gemini: create client", err)
	}
	return &Gemini{client: client, model: cfg.Model, max: cfg.MaxTokens}, nil
}

func (g *Gemini) ModelID() string { return g.model }

// CountTokens is a rough estimate of one token per four characters (genai's real
// CountTokens call is a network round-trip; session trimming (C5)
// only needs an approximation, so we avoid paying that cost per
// event).
func (g *Gemini) CountTokens(text string) int {
	return len(text)/4 + 1
}

func (g *Gemini) Generate(ctx context.Context, messages []capability.Message, tools []capability.ToolDefinition) (string, []capability.ToolCall, int, error) {
	contents, sysInstr := toGeminiContents(messages)
	cfg := g.buildConfig(sysInstr, tools)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", nil, 0, apperr.Wrap(apperr.KindTransient, "gemini request failed", err)
	}
	text, calls := parseGeminiResponse(resp)
	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return text, calls, tokens, nil
}

func (g *Gemini) GenerateStreaming(ctx context.Context, messages []capability.Message, tools []capability.ToolDefinition, out chan<- capability.StreamChunk) ([]capability.ToolCall, int, error) {
	contents, sysInstr := toGeminiContents(messages)
	cfg := g.buildConfig(sysInstr, tools)

	var calls []capability.ToolCall
	tokens := 0
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
		if err != nil {
			return nil, 0, apperr.Wrap(apperr.KindTransient, "gemini stream failed", err)
		}
		text, chunkCalls := parseGeminiResponse(resp)
		if text != "" {
			out <- capability.StreamChunk{Type: "text", Text: text}
		}
		calls = append(calls, chunkCalls...)
		if resp.UsageMetadata != nil {
			tokens = int(resp.UsageMetadata.TotalTokenCount)
		}
	}
	return calls, tokens, nil
}

func (g *Gemini) GenerateStructured(ctx context.Context, messages []capability.Message, scfg capability.StructuredOutputConfig) (string, int, error) {
	contents, sysInstr := toGeminiContents(messages)
	cfg := g.buildConfig(sysInstr, nil)
	cfg.ResponseMIMEType = "application/json"

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", 0, apperr.Wrap(apperr.KindTransient, "gemini structured request failed", err)
	}
	text, _ := parseGeminiResponse(resp)
	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return text, tokens, nil
}

func (g *Gemini) buildConfig(sysInstr *genai.Content, tools []capability.ToolDefinition) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{SystemInstruction: sysInstr}
	if g.max > 0 {
		cfg.MaxOutputTokens = int32(g.max)
	}
	if len(tools) > 0 {
		var decls []*genai.FunctionDeclaration
		for _, t := range tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGeminiSchema(t.Parameters),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return cfg
}

func toGeminiContents(messages []capability.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var sysInstr *genai.Content
	for _, m := range messages {
		switch m.Role {
		case "system":
			sysInstr = &genai.Content{Parts: []*genai.Part{{Text: m.Content}}}
		case "tool":
			var response map[string]any
			_ = json.Unmarshal([]byte(m.Content), &response)
			if response == nil {
				response = map[string]any{"result": m.Content}
			}
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{FunctionResponse: &genai.FunctionResponse{ID: m.ToolCallID, Name: m.Name, Response: response}}},
			})
		case "assistant":
			parts := []*genai.Part{{Text: m.Content}}
			for _, tc := range m.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: tc.Arguments}})
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	return contents, sysInstr
}

func parseGeminiResponse(resp *genai.GenerateContentResponse) (string, []capability.ToolCall) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}
	var text string
	var calls []capability.ToolCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
		if part.FunctionCall != nil {
			raw, _ := json.Marshal(part.FunctionCall.Args)
			calls = append(calls, capability.ToolCall{
				ID:        part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
				RawArgs:   string(raw),
			})
		}
	}
	return text, calls
}

// toGeminiSchema converts a JSON-Schema-shaped map (as produced by
// invopop/jsonschema for tool arguments) into genai's typed Schema.
func toGeminiSchema(params map[string]any) *genai.Schema {
	if params == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return &genai.Schema{Type: genai.TypeObject}
	}
	var schema genai.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return &genai.Schema{Type: genai.TypeObject}
	}
	return &schema
}
