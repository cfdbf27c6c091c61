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

// Package vector adapts embedded and networked vector databases to
// capability.VectorIndexPort (spec §4.1, §4.7).
package vector

import (
	"fmt"

	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/registry"
)

// ProviderType identifies a vector provider implementation.
type ProviderType string

const (
	// ProviderChromem uses chromem-go for embedded vector storage.
	// Zero-config, no external dependencies. Best for development and
	// single-process deployments.
	ProviderChromem ProviderType = "chromem"

	// ProviderQdrant uses Qdrant for distributed, production-scale
	// similarity search.
	ProviderQdrant ProviderType = "qdrant"

	// ProviderPinecone uses Pinecone's managed cloud service.
	ProviderPinecone ProviderType = "pinecone"
)

// ProviderConfig is the configuration for creating a vector provider.
type ProviderConfig struct {
	Type ProviderType `yaml:"type"`

	Chromem  *ChromemConfig  `yaml:"chromem,omitempty"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
	Pinecone *PineconeConfig `yaml:"pinecone,omitempty"`
}

// SetDefaults applies default values.
func (c *ProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = ProviderChromem
	}
	if c.Type == ProviderChromem && c.Chromem == nil {
		c.Chromem = &ChromemConfig{}
	}
}

// Validate checks the configuration.
func (c *ProviderConfig) Validate() error {
	switch c.Type {
	case ProviderChromem:
		return nil
	case ProviderQdrant:
		if c.Qdrant == nil {
			return fmt.Errorf("qdrant configuration is required")
		}
		if c.Qdrant.Host == "" {
			return fmt.Errorf("qdrant host is required")
		}
		return nil
	case ProviderPinecone:
		if c.Pinecone == nil {
			return fmt.Errorf("pinecone configuration is required")
		}
		if c.Pinecone.APIKey == "" {
			return fmt.Errorf("pinecone api_key is required")
		}
		return nil
	case "":
		return fmt.Errorf("provider type is required")
	default:
		return fmt.Errorf("unknown provider type: %q", c.Type)
	}
}

// NewProvider builds a capability.VectorIndexPort from configuration. One
// brand's search index (C7) picks a single backend via this switch; there
// is no need to mix backends within a tenant.
func NewProvider(cfg *ProviderConfig) (capability.VectorIndexPort, error) {
	if cfg == nil {
		return nil, fmt.Errorf("vector provider configuration is required")
	}

	switch cfg.Type {
	case ProviderChromem:
		chromemCfg := ChromemConfig{}
		if cfg.Chromem != nil {
			chromemCfg = *cfg.Chromem
		}
		return NewChromemProvider(chromemCfg)

	case ProviderQdrant:
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant configuration is required")
		}
		return NewQdrantProvider(*cfg.Qdrant)

	case ProviderPinecone:
		if cfg.Pinecone == nil {
			return nil, fmt.Errorf("pinecone configuration is required")
		}
		return NewPineconeProvider(*cfg.Pinecone)

	default:
		return nil, fmt.Errorf("unknown vector provider type: %q", cfg.Type)
	}
}

// Registry holds named capability.VectorIndexPort instances. Nothing in
// this module constructs one: searchindex.Manager is given a single
// VectorIndexPort and keeps per-brand collection names in its own cache.
type Registry struct {
	*registry.BaseRegistry[capability.VectorIndexPort]
}

func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[capability.VectorIndexPort]()}
}

// Close closes every registered provider, collecting any errors.
func (r *Registry) Close() error {
	var errs []error
	for _, p := range r.List() {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing vector providers: %v", errs)
	}
	return nil
}
