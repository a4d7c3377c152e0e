package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHATMESH_PROVIDER", "mock")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderMock, cfg.Provider)
	assert.Equal(t, "./data/chatmesh.db", cfg.DBPath)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.InDelta(t, 0.7, cfg.Temperature, 1e-9)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Nil(t, cfg.EnabledTools)
	assert.Equal(t, 15, cfg.ToolTimeoutSec)
	assert.Equal(t, 0, cfg.TurnTimeoutSec)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "ChatMesh", cfg.AgentName)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHATMESH_PROVIDER", "Anthropic")
	t.Setenv("CHATMESH_API_KEY", "test-key")
	t.Setenv("CHATMESH_MODEL", "claude-sonnet-4-20250514")
	t.Setenv("CHATMESH_TEMPERATURE", "0.2")
	t.Setenv("CHATMESH_HISTORY_LIMIT", "50")
	t.Setenv("CHATMESH_ENABLED_TOOLS", "calculator, task_manager")
	t.Setenv("CHATMESH_LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.ModelName)
	assert.InDelta(t, 0.2, cfg.Temperature, 1e-9)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, []string{"calculator", "task_manager"}, cfg.EnabledTools)
	assert.Equal(t, "text", cfg.LogFormat)
}

func validConfig(provider string) *Config {
	return &Config{
		Provider:       provider,
		Temperature:    0.7,
		MaxTokens:      4096,
		ToolTimeoutSec: 15,
		LogFormat:      "json",
	}
}

func TestValidate(t *testing.T) {
	t.Run("missing API key is fatal for real providers", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")

		err := validConfig(ProviderOpenAI).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key")
	})

	t.Run("provider environment variable satisfies the key check", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-test")

		assert.NoError(t, validConfig(ProviderOpenAI).Validate())
	})

	t.Run("mock provider needs no credentials", func(t *testing.T) {
		assert.NoError(t, validConfig(ProviderMock).Validate())
	})

	t.Run("unknown provider rejected", func(t *testing.T) {
		assert.Error(t, validConfig("gemini").Validate())
	})

	t.Run("bad log format rejected", func(t *testing.T) {
		cfg := validConfig(ProviderMock)
		cfg.LogFormat = "xml"
		assert.Error(t, cfg.Validate())
	})

	t.Run("temperature out of range rejected", func(t *testing.T) {
		cfg := validConfig(ProviderMock)
		cfg.Temperature = 2.5
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero tool timeout rejected", func(t *testing.T) {
		cfg := validConfig(ProviderMock)
		cfg.ToolTimeoutSec = 0
		assert.Error(t, cfg.Validate())
	})
}
