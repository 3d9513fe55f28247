package main

import (
	"fmt"

	"github.com/lucidframe/conversa/internal/archive"
	"github.com/lucidframe/conversa/internal/clock"
	"github.com/lucidframe/conversa/internal/config"
	"github.com/lucidframe/conversa/internal/httpapi"
	"github.com/lucidframe/conversa/internal/llm"
	"github.com/lucidframe/conversa/internal/llm/providers"
	"github.com/lucidframe/conversa/internal/memory"
	"github.com/lucidframe/conversa/internal/observability"
	"github.com/lucidframe/conversa/internal/search"
	"github.com/lucidframe/conversa/internal/tools"
	"github.com/lucidframe/conversa/internal/tools/websearch"
)

// app bundles the long-lived collaborators runServe constructs and hands
// to httpapi.NewServer; archive owns the working store's lifetime.
type app struct {
	archive *archive.Manager
	deps    httpapi.Deps
}

// buildProviders constructs an llm.Provider per configured entry, keyed by
// name, dispatching on api_type the way spec.md §6's [llm.<name>] block
// names it. No registry/factory function exists elsewhere in the tree for
// this — internal/llm/providers only exposes per-vendor constructors — so
// this dispatch is new, grounded on the shape of those constructors.
func buildProviders(cfg config.LLMConfig) (map[string]llm.Provider, error) {
	out := make(map[string]llm.Provider, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		switch name {
		case "anthropic":
			p, err := providers.NewAnthropicProvider(providers.AnthropicConfig{
				APIKey:       pc.APIKey,
				BaseURL:      pc.BaseURL,
				DefaultModel: pc.DefaultModel,
			})
			if err != nil {
				return nil, fmt.Errorf("llm provider %q: %w", name, err)
			}
			out[name] = p
		case "openai":
			out[name] = providers.NewOpenAIProvider(pc.APIKey)
		default:
			return nil, fmt.Errorf("llm provider %q: unknown api_type (want \"anthropic\" or \"openai\")", name)
		}
	}
	return out, nil
}

// buildTools returns every built-in tool this repo ships, per spec.md
// §4.5's tool catalog, adding the optional web search/fetch tools only
// when their config section enables them.
func buildTools(cfg config.ToolsConfig) *tools.Collection {
	builtins := []tools.Tool{
		tools.TerminateTool{},
		tools.StrategyTool{},
		tools.SpeakInPersonTool{},
		tools.SendTelegramMessageTool{},
		tools.DialogueHistoryTool{},
		tools.ReflectionTool{},
		tools.RelationTool{},
		tools.ScheduleReaderTool{},
		tools.ScheduleWriterTool{},
		tools.ScenarioReaderTool{},
		tools.ScenarioWriterTool{},
	}
	if cfg.WebSearch.Enabled {
		builtins = append(builtins, websearch.NewWebSearchTool(&websearch.Config{
			SearXNGURL:         cfg.WebSearch.URL,
			BraveAPIKey:        cfg.WebSearch.BraveAPIKey,
			DefaultBackend:     websearch.SearchBackend(cfg.WebSearch.Provider),
			ExtractContent:     true,
			DefaultResultCount: 5,
		}))
	}
	if cfg.WebFetch.Enabled {
		builtins = append(builtins, websearch.NewWebFetchTool(&websearch.FetchConfig{
			MaxChars: cfg.WebFetch.MaxChars,
		}))
	}
	return tools.NewCollection(builtins...)
}

// buildApp wires every collaborator config.Load produces into an app ready
// to back an httpapi.Server, grounded on the teacher's
// gateway.NewManagedServer constructor sequence (store, then dependents,
// then the transport).
func buildApp(cfg *config.Config, archivesDir, searchAddr, searchAPIKey string, logger *observability.Logger) (*app, error) {
	dbPath := cfg.Database.URL
	if dbPath == "" {
		dbPath = "conversa.db"
	}

	var mirror *search.Client
	if searchAddr != "" {
		mirror = search.New(search.Config{HTTPAddr: searchAddr, APIKey: searchAPIKey}, logger)
	}

	archivesPath := archivesDir
	if archivesPath == "" {
		archivesPath = "archives"
	}
	// archive.Manager opens and owns the single working-database handle; the
	// clock is wired in after, via SetClock, since building it requires the
	// store NewManager only just opened (see SetClock's doc comment).
	archiveMgr, err := archive.NewManager(archive.Options{
		WorkingPath: dbPath,
		ArchivesDir: archivesPath,
		Mirror:      mirror,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open archive manager: %w", err)
	}

	store := archiveMgr.Store()
	clk := clock.New(store)
	archiveMgr.SetClock(clk)

	mem := memory.New(store, mirrorOrNil(mirror))

	llmProviders, err := buildProviders(cfg.LLM)
	if err != nil {
		_ = archiveMgr.Close()
		return nil, err
	}

	return &app{
		archive: archiveMgr,
		deps: httpapi.Deps{
			Config:  cfg,
			Memory:  mem,
			Clock:   clk,
			Search:  mirror,
			Archive: archiveMgr,
			Tools:   buildTools(cfg.Tools),
			LLM:     llmProviders,
			Logger:  logger,
		},
	}, nil
}

// mirrorOrNil returns c as a memory.Mirror, or a true nil interface when c
// itself is nil — a plain *search.Client nil check alone would otherwise
// produce a non-nil interface wrapping a nil pointer.
func mirrorOrNil(c *search.Client) memory.Mirror {
	if c == nil {
		return nil
	}
	return c
}
