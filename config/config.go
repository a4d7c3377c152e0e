// Package config provides application configuration loaded from environment
// variables, with optional .env file support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Model providers the assistant can run against.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Config holds all application configuration.
type Config struct {
	// Provider selects the model backend: openai, anthropic or mock.
	Provider string
	// ModelName overrides the provider's default model when non-empty.
	ModelName string
	// APIKey authenticates with the provider. Falls back to the provider's
	// own environment variable (OPENAI_API_KEY / ANTHROPIC_API_KEY) when
	// empty, which the SDKs read themselves.
	APIKey string

	// Temperature is the sampling temperature passed to the model, 0..2.
	Temperature float64
	// MaxTokens caps the model's completion length.
	MaxTokens int

	// DBPath locates the SQLite database. Empty selects the in-memory store.
	DBPath string

	// HistoryLimit bounds how many transcript messages seed a conversation.
	HistoryLimit int
	// EnabledTools restricts the builtin tool set to the named providers.
	// Empty enables everything.
	EnabledTools []string
	// ToolTimeoutSec bounds a single tool invocation, in seconds.
	ToolTimeoutSec int
	// TurnTimeoutSec bounds a full agent turn, in seconds. Zero disables it.
	TurnTimeoutSec int

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is json or text.
	LogFormat string

	// AgentName appears in the default system instruction.
	AgentName string
	// Instruction overrides the default system instruction when non-empty.
	Instruction string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; real environment variables win.
func Load() (*Config, error) {
	// Ignore a missing .env file; it is a development convenience only.
	_ = godotenv.Load()

	cfg := &Config{
		Provider:       strings.ToLower(getEnv("CHATMESH_PROVIDER", ProviderOpenAI)),
		ModelName:      getEnv("CHATMESH_MODEL", ""),
		APIKey:         getEnv("CHATMESH_API_KEY", ""),
		Temperature:    getEnvFloat("CHATMESH_TEMPERATURE", 0.7),
		MaxTokens:      getEnvInt("CHATMESH_MAX_TOKENS", 4096),
		DBPath:         getEnv("CHATMESH_DB_PATH", "./data/chatmesh.db"),
		HistoryLimit:   getEnvInt("CHATMESH_HISTORY_LIMIT", 20),
		EnabledTools:   getEnvList("CHATMESH_ENABLED_TOOLS"),
		ToolTimeoutSec: getEnvInt("CHATMESH_TOOL_TIMEOUT", 15),
		TurnTimeoutSec: getEnvInt("CHATMESH_TURN_TIMEOUT", 0),
		LogLevel:       getEnv("CHATMESH_LOG_LEVEL", "info"),
		LogFormat:      getEnv("CHATMESH_LOG_FORMAT", "json"),
		AgentName:      getEnv("CHATMESH_AGENT_NAME", "ChatMesh"),
		Instruction:    getEnv("CHATMESH_INSTRUCTION", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks provider selection and credentials. A missing API key is
// fatal for real providers unless the SDK's own environment variable is set.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.APIKey == "" && os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("no API key: set CHATMESH_API_KEY or OPENAI_API_KEY")
		}
	case ProviderAnthropic:
		if c.APIKey == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
			return fmt.Errorf("no API key: set CHATMESH_API_KEY or ANTHROPIC_API_KEY")
		}
	case ProviderMock:
		// No credentials needed.
	default:
		return fmt.Errorf("unknown provider %q, use openai, anthropic or mock", c.Provider)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("CHATMESH_TEMPERATURE must be between 0 and 2")
	}

	if c.MaxTokens <= 0 {
		return fmt.Errorf("CHATMESH_MAX_TOKENS must be > 0")
	}

	if c.HistoryLimit < 0 {
		return fmt.Errorf("CHATMESH_HISTORY_LIMIT must be >= 0")
	}

	if c.ToolTimeoutSec <= 0 {
		return fmt.Errorf("CHATMESH_TOOL_TIMEOUT must be > 0")
	}

	if c.TurnTimeoutSec < 0 {
		return fmt.Errorf("CHATMESH_TURN_TIMEOUT must be >= 0")
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("CHATMESH_LOG_FORMAT must be json or text")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}

	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}

	return f
}

// getEnvList parses a comma separated list, dropping empty entries.
func getEnvList(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
