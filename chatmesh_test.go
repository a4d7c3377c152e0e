package chatmesh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatmesh/config"
	"github.com/hupe1980/chatmesh/model"
)

func mockConfig() *config.Config {
	return &config.Config{
		Provider:     config.ProviderMock,
		DBPath:       "", // in-memory store
		HistoryLimit: 20,
		LogLevel:     "error",
		LogFormat:    "json",
		AgentName:    "TestBot",
	}
}

func TestNewAndChat(t *testing.T) {
	mesh, err := New("alice", mockConfig(), func(o *Options) {
		o.Model = model.NewMockModel(&model.Response{Text: "hi alice", FinishReason: "stop"})
	})
	require.NoError(t, err)
	defer mesh.Close() //nolint:errcheck

	reply, err := mesh.Chat(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi alice", reply)

	stats := mesh.Stats()
	assert.Equal(t, "alice", stats.UserID)
	assert.Equal(t, 1, stats.MessageCount)

	history := mesh.History(context.Background(), 10)
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].Text)
}

func TestBuiltinToolsAreRegistered(t *testing.T) {
	mesh, err := New("alice", mockConfig())
	require.NoError(t, err)
	defer mesh.Close() //nolint:errcheck

	catalog := mesh.Tools()
	assert.Contains(t, catalog, "calculator")
	assert.Contains(t, catalog, "task_manager")
	assert.Contains(t, catalog, "unit_converter")
	assert.Len(t, catalog, 7)
}

func TestEnabledToolsFilter(t *testing.T) {
	cfg := mockConfig()
	cfg.EnabledTools = []string{"calculator", "date_info", "no_such_tool"}

	mesh, err := New("alice", cfg)
	require.NoError(t, err)
	defer mesh.Close() //nolint:errcheck

	catalog := mesh.Tools()
	assert.Len(t, catalog, 2)
	assert.Contains(t, catalog, "calculator")
	assert.Contains(t, catalog, "date_info")
}

func TestNilConfigRejected(t *testing.T) {
	_, err := New("alice", nil)
	assert.Error(t, err)
}
