// Package chatmesh provides a high-level façade over the conversation
// manager, tool registry, persistence gateway and model adapters. Most
// applications interact with this package by:
//  1. Loading configuration via config.Load()
//  2. Creating a ChatMesh via New() (optionally overriding the store, model
//     or tool set)
//  3. Calling Chat() per user message
//
// The façade delegates orchestration to manager.Manager while keeping setup
// ergonomics concise. All defaults are safe for local development: the mock
// provider answers without credentials and an empty DB path selects the
// in-memory store.
package chatmesh

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/chatmesh/agent"
	"github.com/hupe1980/chatmesh/builtin"
	"github.com/hupe1980/chatmesh/config"
	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/logging"
	"github.com/hupe1980/chatmesh/manager"
	"github.com/hupe1980/chatmesh/model"
	"github.com/hupe1980/chatmesh/model/anthropic"
	"github.com/hupe1980/chatmesh/model/openai"
	"github.com/hupe1980/chatmesh/persistence"
	"github.com/hupe1980/chatmesh/tool"
)

// Options configures a ChatMesh instance.
type Options struct {
	// Model overrides the provider selected by the config.
	Model model.Model
	// Store overrides the store selected by the config's DBPath.
	Store core.ContextStore
	// Providers replaces the builtin tool set. Nil keeps the builtins;
	// an empty map disables tools entirely.
	Providers map[string]tool.Provider
	// Logger receives diagnostics from all components. Defaults to a
	// ChatLogger built from the config's log settings.
	Logger logging.Logger
}

// ChatMesh bundles one user's assistant: agent, tools and persistence.
type ChatMesh struct {
	manager  *manager.Manager
	registry *tool.Registry
}

// New assembles an assistant for userID from configuration.
func New(userID string, cfg *config.Config, optFns ...func(o *Options)) (*ChatMesh, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	opts := Options{
		Providers: builtin.Providers(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.New(&logging.Config{
			Level:  logging.ParseLevel(cfg.LogLevel),
			Format: cfg.LogFormat,
		})
	}

	llm := opts.Model
	if llm == nil {
		var err error
		if llm, err = buildModel(cfg); err != nil {
			return nil, err
		}
	}

	store := opts.Store
	if store == nil {
		var err error
		if store, err = buildStore(cfg); err != nil {
			return nil, err
		}
	}

	registry := tool.NewRegistry(func(o *tool.RegistryOptions) {
		o.Logger = logger
	})
	registry.Discover(filterProviders(opts.Providers, cfg.EnabledTools))

	instruction := cfg.Instruction
	if instruction == "" {
		instruction = fmt.Sprintf(
			"You are %s, a helpful assistant for user {{.user_id}}. "+
				"Use your tools when they help answer the question.", cfg.AgentName)
	}

	a := agent.NewModelAgent(cfg.AgentName, llm, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(instruction)
		o.MaxHistoryMessages = cfg.HistoryLimit
		if cfg.ToolTimeoutSec > 0 {
			o.ToolTimeout = time.Duration(cfg.ToolTimeoutSec) * time.Second
		}
		o.Logger = logger
	})

	gateway := persistence.NewGateway(store, func(o *persistence.GatewayOptions) {
		o.Logger = logger
	})

	m, err := manager.New(userID, a, gateway, func(o *manager.Options) {
		o.Registry = registry
		o.HistoryLimit = cfg.HistoryLimit
		o.TurnTimeout = time.Duration(cfg.TurnTimeoutSec) * time.Second
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}

	return &ChatMesh{manager: m, registry: registry}, nil
}

// filterProviders restricts the provider table to enabled tool names. An
// empty filter enables everything.
func filterProviders(providers map[string]tool.Provider, enabled []string) map[string]tool.Provider {
	if len(enabled) == 0 {
		return providers
	}

	filtered := make(map[string]tool.Provider, len(enabled))
	for _, name := range enabled {
		if p, ok := providers[name]; ok {
			filtered[name] = p
		}
	}

	return filtered
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if cfg.ModelName != "" {
				o.Model = cfg.ModelName
			}
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = int64(cfg.MaxTokens)
			o.APIKey = cfg.APIKey
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.ModelName != "" {
				o.Model = anthropic.ModelName(cfg.ModelName)
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = int64(cfg.MaxTokens)
			o.APIKey = cfg.APIKey
		}), nil
	case config.ProviderMock:
		return model.NewMockModel(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func buildStore(cfg *config.Config) (core.ContextStore, error) {
	if cfg.DBPath == "" {
		return persistence.NewInMemoryStore(), nil
	}

	store, err := persistence.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return store, nil
}

// Chat processes one user message and returns the assistant's reply.
func (c *ChatMesh) Chat(ctx context.Context, message string) (string, error) {
	return c.manager.Chat(ctx, message)
}

// Stats returns the current session snapshot.
func (c *ChatMesh) Stats() manager.Stats { return c.manager.Stats() }

// Tools returns the registered tool catalog.
func (c *ChatMesh) Tools() map[string]tool.Metadata { return c.registry.List() }

// History returns up to limit persisted transcript messages, oldest first.
func (c *ChatMesh) History(ctx context.Context, limit int) []core.ChatMessage {
	return c.manager.History(ctx, limit)
}

// Close flushes state and releases the underlying store.
func (c *ChatMesh) Close() error { return c.manager.Close() }
