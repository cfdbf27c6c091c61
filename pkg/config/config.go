// Package config implements the Config Loader: the YAML+env
// configuration surface of spec §6's options table, and the runtime
// settings the Request Coordinator (C10) and per-component
// constructors need to stand the service up.
//
// Grounded on the teacher's pkg/config: the env-var-expansion and
// .env-loading discipline (env.go) is carried unchanged, and the
// koanf-based file loader (loader.go) keeps the teacher's
// koanf_loader.go shape narrowed to a single file provider with
// fsnotify-backed hot-reload, dropping the teacher's consul/etcd/
// zookeeper distributed-backend providers (no SPEC_FULL component
// wants a distributed config store — see DESIGN.md). The struct shape
// itself replaces the teacher's AgentConfig/ToolConfig/RAG-pipeline
// schema entirely: this domain has one tenant-scoped agent, not a
// registry of configurable ones.
package config

import (
	"time"

	"github.com/brandloom/agentforge/pkg/observability"
)

// ProviderConfig holds the external-provider identifiers spec §6
// groups under "tenant namespace for the remote providers".
type ProviderConfig struct {
	ProjectID           string `yaml:"projectId"`
	SearchIndexLocation string `yaml:"searchIndexLocation"`
	MemoryLocation      string `yaml:"memoryLocation"`
}

// ModelConfig holds the default model identifiers spec §6 lists,
// each overridable per request via tenant.Settings.
type ModelConfig struct {
	DefaultTextModel  string `yaml:"defaultTextModel"`
	DefaultImageModel string `yaml:"defaultImageModel"`
	DefaultVideoModel string `yaml:"defaultVideoModel"`
	DefaultMusicModel string `yaml:"defaultMusicModel"`
}

// ServerConfig holds the Request Coordinator's (C10) own HTTP
// settings, distinct from the tenant-facing options above.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	CORSOrigins    []string      `yaml:"corsOrigins"`
}

// DatabaseConfig is the SQL connection the Document DB port and the
// Search Index Manager's fallback library share (spec §4.7, §6
// "Persisted state").
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "postgres", "mysql", or "sqlite3"
	DSN    string `yaml:"dsn"`
}

// Config is the top-level configuration document: spec §6's
// recognised options plus the infra settings needed to construct the
// twelve components.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Models   ModelConfig    `yaml:"models"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`

	// EnableMemoryBank disables all memory recall/writes when false
	// (spec §6): the composition root wires memory.Store to a no-op
	// implementation in that case rather than branching at call sites.
	EnableMemoryBank bool `yaml:"enableMemoryBank"`

	// SessionTokenBudget is the soft cap session.Store.Trim enforces
	// before dropping the oldest complete turns (spec §6, default
	// 30000).
	SessionTokenBudget int `yaml:"sessionTokenBudget"`

	// AutoIndex is copied into server.Config (spec §6, §4.7). Nothing
	// reads it there: the indexMediaItem tool always calls EnsureActive
	// with autoIndex=true and does not embed the new item itself.
	AutoIndex bool `yaml:"autoIndex"`

	// MCPServerURL, when set, registers an external MCP server as an
	// additional dynamically-resolved Toolset (spec §4.4's tool
	// registry; not itself a named §6 option, but the one extension
	// point the registry's Toolset interface exists for).
	MCPServerURL string `yaml:"mcpServerUrl,omitempty"`

	// Observability configures distributed tracing and Prometheus
	// metrics (spec §6's optional observability surface); both
	// sub-sections default to disabled, matching the teacher's
	// observability.Config defaults.
	Observability observability.Config `yaml:"observability,omitempty"`
}
