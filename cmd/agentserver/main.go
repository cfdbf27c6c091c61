// Command agentserver is the composition root for the agent
// orchestration service: it loads configuration, wires the capability
// port adapters and the twelve domain components, and runs the
// Request Coordinator (C10) until terminated.
//
// Usage:
//
//	agentserver serve --config config.yaml
//
// Grounded on the teacher's cmd/hector/main.go (kong CLI, signal-based
// graceful shutdown, load-config-then-build-components ordering) and
// cmd/hector/serve.go's provider-selection branching, narrowed from a
// multi-agent zero-config CLI to this domain's single composition
// path.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/brandloom/agentforge/pkg/agentloop"
	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/config"
	"github.com/brandloom/agentforge/pkg/docdb"
	"github.com/brandloom/agentforge/pkg/embedders"
	"github.com/brandloom/agentforge/pkg/generators"
	"github.com/brandloom/agentforge/pkg/jobtracker"
	"github.com/brandloom/agentforge/pkg/llms"
	"github.com/brandloom/agentforge/pkg/logger"
	"github.com/brandloom/agentforge/pkg/longtermmemory"
	"github.com/brandloom/agentforge/pkg/media"
	"github.com/brandloom/agentforge/pkg/memory"
	"github.com/brandloom/agentforge/pkg/objectstore"
	"github.com/brandloom/agentforge/pkg/observability"
	"github.com/brandloom/agentforge/pkg/searchindex"
	"github.com/brandloom/agentforge/pkg/server"
	"github.com/brandloom/agentforge/pkg/session"
	"github.com/brandloom/agentforge/pkg/tool"
	"github.com/brandloom/agentforge/pkg/tool/catalog"
	"github.com/brandloom/agentforge/pkg/tool/mcptoolset"
	"github.com/brandloom/agentforge/pkg/vector"
)

type CLI struct {
	Serve    ServeCmd    `cmd:"" help:"Start the agent orchestration service."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file without starting the server."`

	Config    string `short:"c" help:"Path to config file." type:"path" default:"config.yaml"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	SystemMsg string `name:"system-instruction" help:"System instruction prepended to every turn."`
}

type ServeCmd struct {
	Watch bool `help:"Watch the config file and hot-reload on change."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli, kong.Name("agentserver"), kong.Description("Agent orchestration service"))
	if err := kctx.Run(&cli); err != nil {
		fmt.Fprintln(os.Stderr, "agentserver:", err)
		os.Exit(1)
	}
}

func (c *ServeCmd) Run(cli *CLI) error {
	logger.Init(logger.ParseLevel(cli.LogLevel), logger.FormatText, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("agentserver: shutdown signal received")
		cancel()
	}()

	config.LoadEnvFiles()

	loader := config.NewLoader(cli.Config)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	built, err := build(ctx, cfg, cli.SystemMsg)
	if err != nil {
		return fmt.Errorf("build components: %w", err)
	}
	srv := built.server
	defer built.observability.Shutdown(context.Background())

	sweeper, err := jobtracker.NewScheduler(built.jobs, time.Minute)
	if err != nil {
		return fmt.Errorf("job sweep scheduler: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	if c.Watch {
		loader.SetOnChange(func(newCfg *config.Config) {
			slog.Info("agentserver: config changed; restart required to apply (spec §6 options are resolved once at startup)")
		})
		if err := loader.Watch(); err != nil {
			slog.Warn("agentserver: config watch disabled", "error", err)
		} else {
			defer loader.Stop()
		}
	}

	return srv.Start(ctx)
}

// builtComponents bundles the pieces ServeCmd.Run needs beyond the
// server itself (the job tracker, for the periodic hard-cap sweep).
type builtComponents struct {
	server        *server.Server
	jobs          *jobtracker.Tracker
	observability *observability.Manager
}

// build constructs every capability port adapter and domain component
// from cfg and wires them into a server.Server, mirroring the
// teacher's main.go's linear dbPool -> sessionSvc -> runtime ->
// executors -> HTTPServer construction order.
func build(ctx context.Context, cfg *config.Config, systemInstruction string) (*builtComponents, error) {
	obs, err := observability.NewManager(ctx, &cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}

	docStore, err := docdb.NewFromDSN(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("document db: %w", err)
	}

	library, err := searchindex.NewSQLLibrary(docStore.DB(), docStore.Driver())
	if err != nil {
		return nil, fmt.Errorf("media library: %w", err)
	}

	objectStore, err := objectstore.NewLocal(objectstore.LocalConfig{RootDir: "./data/media"})
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}

	llmPort, err := buildLLM(cfg.Models.DefaultTextModel)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	embedder, err := embedders.NewOpenAI(embedders.OpenAIConfig{
		APIKey: config.GetProviderAPIKey("openai"),
		Model:  "text-embedding-3-small",
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	vectorPort, err := vector.NewProvider(&vector.ProviderConfig{
		Type:    vector.ProviderChromem,
		Chromem: &vector.ChromemConfig{PersistPath: cfg.Provider.SearchIndexLocation},
	})
	if err != nil {
		return nil, fmt.Errorf("vector index: %w", err)
	}

	jobs := jobtracker.NewTracker()
	searchIndex := searchindex.NewManager(vectorPort, embedder, library, jobs)

	counter, err := session.NewTiktokenCounter(cfg.Models.DefaultTextModel)
	if err != nil {
		return nil, fmt.Errorf("token counter: %w", err)
	}
	sessions := session.NewInMemoryStore()

	var memoryStore memory.Store = memory.NoopStore{}
	if cfg.EnableMemoryBank {
		remote := longtermmemory.New(longtermmemory.Config{BaseURL: cfg.Provider.MemoryLocation})
		memoryStore = memory.NewRemoteStore(remote)
	}

	resolver := media.NewResolver(searchIndex)

	registry := tool.NewRegistry()
	if cfg.MCPServerURL != "" {
		ts, err := mcptoolset.New(mcptoolset.Config{Name: "external", URL: cfg.MCPServerURL, Transport: "streamable-http"})
		if err != nil {
			slog.Warn("agentserver: mcp toolset unavailable", "error", err)
		} else {
			registry.RegisterToolset(ts)
		}
	}
	registerTools(registry, registryDeps{
		llm:         llmPort,
		objectStore: objectStore,
		searchIndex: searchIndex,
		library:     library,
		memoryStore: memoryStore,
		docStore:    docStore,
		jobs:        jobs,
		genConfig: generators.Config{
			APIKey:      config.GetProviderAPIKey("gemini"),
			ImageModel:  cfg.Models.DefaultImageModel,
			VideoModel:  cfg.Models.DefaultVideoModel,
			MusicModel:  cfg.Models.DefaultMusicModel,
			VisionModel: cfg.Models.DefaultTextModel,
		},
	})

	loop := agentloop.New(agentloop.Services{
		LLM:       llmPort,
		Sessions:  sessions,
		Memory:    memoryStore,
		Resolver:  resolver,
		Tools:     registry,
		Counter:   counter,
		MaxTokens: cfg.SessionTokenBudget,
	})

	var cors *server.CORSConfig
	if len(cfg.Server.CORSOrigins) > 0 {
		cors = &server.CORSConfig{AllowedOrigins: cfg.Server.CORSOrigins}
	}

	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		RequestTimeout: cfg.Server.RequestTimeout,
		CORS:           cors,
		AutoIndex:      cfg.AutoIndex,
	}, server.Deps{
		Loop:              loop,
		Sessions:          sessions,
		Counter:           counter,
		Memory:            memoryStore,
		SearchIndex:       searchIndex,
		Library:           library,
		Jobs:              jobs,
		SystemInstruction: systemInstruction,
		Observability:     obs,
	})
	return &builtComponents{server: srv, jobs: jobs, observability: obs}, nil
}

// buildLLM picks a capability.LLMPort from the model name's vendor
// prefix (spec §6's defaultTextModel), the way the teacher's
// pkg/llms.New dispatches on an explicit ProviderType but without
// requiring a separate provider field in this domain's flat config.
func buildLLM(model string) (capability.LLMPort, error) {
	providerType, providerKey := detectProvider(model)
	return llms.New(llms.ProviderConfig{
		Type:      providerType,
		APIKey:    config.GetProviderAPIKey(providerKey),
		Model:     model,
		MaxTokens: 4096,
	})
}

func detectProvider(model string) (llms.ProviderType, string) {
	switch {
	case strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3"):
		return llms.ProviderOpenAI, "openai"
	case strings.HasPrefix(model, "gemini"):
		return llms.ProviderGemini, "gemini"
	default:
		return llms.ProviderAnthropic, "anthropic"
	}
}

type registryDeps struct {
	llm         capability.LLMPort
	objectStore capability.ObjectStorePort
	searchIndex *searchindex.Manager
	library     searchindex.Library
	memoryStore memory.Store
	docStore    *docdb.Store
	jobs        *jobtracker.Tracker
	genConfig   generators.Config
}

// registerTools builds the tool catalogue (spec §4.8's tool registry
// dependency), logging and skipping any generator that fails to
// construct (e.g. a missing API key) rather than failing startup —
// a brand can run with text-only tools if generation providers are
// unconfigured.
func registerTools(reg *tool.Registry, d registryDeps) {
	mustRegister := func(t tool.CallableTool, err error) {
		if err != nil {
			slog.Warn("agentserver: tool unavailable", "error", err)
			return
		}
		if err := reg.RegisterTool(t); err != nil {
			slog.Warn("agentserver: tool registration failed", "error", err)
		}
	}

	mustRegister(catalog.NewGenerateText(d.llm))
	mustRegister(catalog.NewQueryBrandDocuments(d.docStore))
	mustRegister(catalog.NewIngestBrandDocument(d.objectStore, d.docStore))
	mustRegister(catalog.NewSearchMediaLibrary(d.searchIndex))
	mustRegister(catalog.NewIndexMediaItem(d.searchIndex, d.library))
	mustRegister(catalog.NewRecallMemory(d.memoryStore))
	mustRegister(catalog.NewSaveMemory(d.memoryStore))

	if img, err := generators.NewImage(d.genConfig, d.objectStore); err == nil {
		mustRegister(catalog.NewGenerateImage(img, d.objectStore))
		mustRegister(catalog.NewEditOrComposeImage(img, d.objectStore))
	} else {
		slog.Warn("agentserver: image generation unavailable", "error", err)
	}
	if vid, err := generators.NewVideo(d.genConfig, d.objectStore); err == nil {
		mustRegister(catalog.NewGenerateVideo(vid, d.objectStore, d.jobs))
	} else {
		slog.Warn("agentserver: video generation unavailable", "error", err)
	}
	if mus, err := generators.NewMusic(d.genConfig, d.objectStore); err == nil {
		mustRegister(catalog.NewGenerateMusic(mus, d.objectStore, d.jobs))
	} else {
		slog.Warn("agentserver: music generation unavailable", "error", err)
	}
	if vis, err := generators.NewVision(d.genConfig, d.objectStore); err == nil {
		mustRegister(catalog.NewAnalyzeImage(vis))
	} else {
		slog.Warn("agentserver: vision analysis unavailable", "error", err)
	}
}
