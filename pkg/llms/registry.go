package llms

import (
	"fmt"

	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/registry"
)

// ProviderType identifies a concrete LLMPort implementation.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGemini    ProviderType = "gemini"
)

// ProviderConfig selects and configures one capability.LLMPort (spec
// §6: per-tenant model overrides for text/image/video/music).
type ProviderConfig struct {
	Type      ProviderType
	APIKey    string
	Model     string
	MaxTokens int64
	BaseURL   string
}

// New constructs a capability.LLMPort from cfg.
func New(cfg ProviderConfig) (capability.LLMPort, error) {
	switch cfg.Type {
	case ProviderAnthropic:
		return NewAnthropic(AnthropicConfig{APIKey: cfg.APIKey, Model: cfg.Model, MaxTokens: cfg.MaxTokens, BaseURL: cfg.BaseURL})
	case ProviderOpenAI:
		return NewOpenAI(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, MaxTokens: cfg.MaxTokens, BaseURL: cfg.BaseURL})
	case ProviderGemini:
		return NewGemini(GeminiConfig{APIKey: cfg.APIKey, Model: cfg.Model, MaxTokens: cfg.MaxTokens})
	default:
		return nil, fmt.Errorf("unsupported LLM provider type: %q", cfg.Type)
	}
}

// Registry holds named capability.LLMPort instances so tool handlers
// and the agent loop can look one up by a tenant's requested model
// family without constructing providers themselves.
type Registry struct {
	*registry.BaseRegistry[capability.LLMPort]
}

func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[capability.LLMPort]()}
}
