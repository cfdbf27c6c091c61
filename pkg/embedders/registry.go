package embedders

import (
	"fmt"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/registry"
)

// Registry holds named capability.EmbedderPort instances — one per brand
// or per purpose (session-memory vs. document-corpus embeddings can use
// different models), following pkg/vector.Registry's same
// pkg/registry.BaseRegistry[T] wrapping.
type Registry struct {
	*registry.BaseRegistry[capability.EmbedderPort]
}

func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[capability.EmbedderPort]()}
}

func (r *Registry) RegisterEmbedder(name string, provider capability.EmbedderPort) error {
	if name == "" {
		return apperr.New(apperr.KindValidation, "embedders: name cannot be empty")
	}
	if provider == nil {
		return apperr.New(apperr.KindValidation, "embedders: provider cannot be nil")
	}
	return r.Register(name, provider)
}

func (r *Registry) GetEmbedder(name string) (capability.EmbedderPort, error) {
	provider, ok := r.Get(name)
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, fmt.Sprintf("embedders: provider %q not found", name))
	}
	return provider, nil
}
