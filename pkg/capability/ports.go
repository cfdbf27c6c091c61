// Package capability defines the Capability Ports (C1): the provider-
// agnostic interfaces every concrete LLM/generator/storage backend
// implements. Generalizes the teacher's per-domain provider
// interfaces (pkg/databases.DatabaseProvider, pkg/llms) into one
// place so the agent loop, tool registry, and config layer depend
// only on these, never on a specific vendor SDK.
package capability

import "context"

// Message is the provider-agnostic chat turn passed to an LLMPort.
type Message struct {
	Role       string // "user", "assistant", "system", "tool"
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// ToolDefinition is a tool exposed to the LLM as a callable function,
// carrying a JSON Schema for its arguments.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a tool invocation the LLM requested.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
	RawArgs   string
}

// StreamChunk is one increment of a streaming LLM response.
type StreamChunk struct {
	Type     string // "text", "tool_call", "done", "error"
	Text     string
	ToolCall *ToolCall
	Tokens   int
	Err      error
}

// StructuredOutputConfig requests schema-constrained output from an
// LLMPort, used by the query expander (C12) and structured tool
// arguments.
type StructuredOutputConfig struct {
	Schema any
}

// LLMPort is the text-generation capability (spec §4.1).
type LLMPort interface {
	// Generate returns a complete response, or tool calls the caller
	// must execute before the turn can continue.
	Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (text string, calls []ToolCall, tokens int, err error)

	// GenerateStreaming streams text chunks to out as they arrive and
	// returns any tool calls once the stream completes.
	GenerateStreaming(ctx context.Context, messages []Message, tools []ToolDefinition, out chan<- StreamChunk) (calls []ToolCall, tokens int, err error)

	// GenerateStructured constrains the response to a JSON Schema.
	GenerateStructured(ctx context.Context, messages []Message, cfg StructuredOutputConfig) (text string, tokens int, err error)

	// CountTokens estimates the token cost of text under this
	// provider's tokenizer, for session trimming (C5).
	CountTokens(text string) int

	// ModelID reports the concrete model identifier in use, for
	// logging and per-tenant settings overrides.
	ModelID() string
}

// GenResult is the outcome of an image/video/music generation call:
// a storable object plus the metadata the Media Resolver and Tool
// Registry attach to the resulting Handle.
type GenResult struct {
	ObjectURI string
	MimeType  string
	Width     int
	Height    int
	Duration  float64 // seconds, for video/audio
}

// ImageGenPort generates or edits still images.
type ImageGenPort interface {
	Generate(ctx context.Context, prompt string, refs []string) (GenResult, error)
	Edit(ctx context.Context, prompt string, sourceURI string, refs []string) (GenResult, error)
}

// VideoGenPort generates video, typically via an asynchronous
// provider job the caller must poll (spec §4.11).
type VideoGenPort interface {
	// Submit starts generation and returns a provider-assigned job
	// reference to poll.
	Submit(ctx context.Context, prompt string, refImage string) (providerJobID string, err error)
	// Poll returns the current status; done=true once ready/failed.
	Poll(ctx context.Context, providerJobID string) (result GenResult, done bool, err error)
}

// MusicGenPort generates audio/music, following the same
// submit/poll shape as VideoGenPort.
type MusicGenPort interface {
	Submit(ctx context.Context, prompt string, durationSeconds float64) (providerJobID string, err error)
	Poll(ctx context.Context, providerJobID string) (result GenResult, done bool, err error)
}

// VisionPort analyzes an existing image, used offline to populate
// LibraryItem vision fields and inline by the analyzeImage tool.
type VisionPort interface {
	Analyze(ctx context.Context, imageURI string, question string) (description string, keywords []string, categories []string, err error)
}

// ObjectStorePort stores and retrieves opaque binary media, backing
// generated/uploaded assets (local filesystem in development, S3 in
// production — spec §4.1).
type ObjectStorePort interface {
	Put(ctx context.Context, key string, content []byte, mimeType string) (uri string, err error)
	Get(ctx context.Context, uri string) (content []byte, mimeType string, err error)
	Delete(ctx context.Context, uri string) error
	// SignedURL returns a time-limited, publicly fetchable URL for uri.
	SignedURL(ctx context.Context, uri string, expiry int) (string, error)
}

// DocumentRow is one record returned by a document-corpus query.
type DocumentRow struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// DocumentDBPort stores brand document corpora for queryBrandDocuments
// (spec §4.1), backed by SQLite/Postgres/MySQL via the same
// single-connection-per-driver discipline the teacher's DBPool uses.
type DocumentDBPort interface {
	InsertDocument(ctx context.Context, brandID string, doc DocumentRow) error
	QueryDocuments(ctx context.Context, brandID string, filter map[string]any, limit int) ([]DocumentRow, error)
	DeleteDocument(ctx context.Context, brandID string, id string) error
	Close() error
}

// VectorMatch is one similarity-search hit from a VectorIndexPort.
type VectorMatch struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// VectorIndexPort is the provider-agnostic vector database surface
// (spec §4.1, §4.7), generalized from the teacher's DatabaseProvider.
type VectorIndexPort interface {
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]VectorMatch, error)
	Delete(ctx context.Context, collection string, id string) error
	CreateCollection(ctx context.Context, collection string, dims int) error
	DeleteCollection(ctx context.Context, collection string) error
	CollectionExists(ctx context.Context, collection string) (bool, error)
	Close() error
}

// EmbedderPort turns text into a vector for VectorIndexPort and
// LongTermMemoryPort use.
type EmbedderPort interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// LongTermMemoryPort is the remote memory-fact capability (spec §3,
// §4.6): a resource-name-addressed store of durable facts distinct
// from session history.
type LongTermMemoryPort interface {
	// Save persists content and returns a provider resource name
	// (e.g. "memories/abc123") — the tail segment becomes the local
	// factId (spec §4.6 invariant).
	Save(ctx context.Context, brandID, userID, content string) (remoteID string, err error)
	Recall(ctx context.Context, brandID, userID, query string, limit int) (facts []MemoryFact, err error)
	Delete(ctx context.Context, remoteID string) error
}

// MemoryFact is one durable fact returned by LongTermMemoryPort.Recall.
type MemoryFact struct {
	FactID   string
	RemoteID string
	Content  string
	SavedAt  string
}

// WebResult is one hit from a WebSearchPort query.
type WebResult struct {
	Title   string
	URL     string
	Snippet string
}

// WebSearchPort performs general web search for the webSearch tool.
type WebSearchPort interface {
	Search(ctx context.Context, query string, maxResults int) ([]WebResult, error)
}

// FetchResult is the outcome of crawling a single URL.
type FetchResult struct {
	URL      string
	Title    string
	Text     string
	MimeType string
}

// HTTPFetchPort renders and extracts readable content from arbitrary
// URLs for crawlWebsite/processYoutubeVideo (spec §4.1), backed by a
// headless-browser provider for JS-rendered pages.
type HTTPFetchPort interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}
