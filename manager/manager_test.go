package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatmesh/agent"
	"github.com/hupe1980/chatmesh/builtin"
	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/model"
	"github.com/hupe1980/chatmesh/persistence"
	"github.com/hupe1980/chatmesh/tool"
)

func newManager(t *testing.T, llm model.Model, optFns ...func(o *Options)) (*Manager, *persistence.Gateway) {
	t.Helper()

	gateway := persistence.NewGateway(persistence.NewInMemoryStore())
	a := agent.NewModelAgent("assistant", llm)

	m, err := New("alice", a, gateway, optFns...)
	require.NoError(t, err)

	return m, gateway
}

func TestManagerChat(t *testing.T) {
	t.Run("turn persists transcript and context", func(t *testing.T) {
		llm := model.NewMockModel(&model.Response{Text: "hello alice", FinishReason: "stop"})
		m, gateway := newManager(t, llm)
		defer m.Close() //nolint:errcheck

		reply, err := m.Chat(context.Background(), "hi")
		require.NoError(t, err)
		assert.Equal(t, "hello alice", reply)

		assert.Equal(t, 1, m.Context().MessageCount())

		history := gateway.RecentHistory(context.Background(), "alice", 10)
		require.Len(t, history, 2)
		assert.Equal(t, core.SenderUser, history[0].Sender)
		assert.Equal(t, "hi", history[0].Text)
		assert.Equal(t, core.SenderBot, history[1].Sender)
		assert.Equal(t, "hello alice", history[1].Text)

		// The saved context carries the updated counter.
		saved := gateway.LoadContext(context.Background(), "alice")
		assert.Equal(t, 1, saved.MessageCount())
	})

	t.Run("agent failure yields fallback and still records the turn", func(t *testing.T) {
		llm := model.NewMockModel()
		llm.FailWith(errors.New("api down"))

		m, gateway := newManager(t, llm)
		defer m.Close() //nolint:errcheck

		reply, err := m.Chat(context.Background(), "hi")
		require.NoError(t, err)
		assert.Equal(t, DefaultFallbackMessage, reply)

		// Counter still advanced and the fallback landed in the transcript.
		assert.Equal(t, 1, m.Context().MessageCount())

		history := gateway.RecentHistory(context.Background(), "alice", 10)
		require.Len(t, history, 2)
		assert.Equal(t, DefaultFallbackMessage, history[1].Text)

		saved := gateway.LoadContext(context.Background(), "alice")
		assert.Equal(t, 1, saved.MessageCount())
	})

	t.Run("custom fallback message", func(t *testing.T) {
		llm := model.NewMockModel()
		llm.FailWith(errors.New("api down"))

		m, _ := newManager(t, llm, func(o *Options) {
			o.FallbackMessage = "brb"
		})
		defer m.Close() //nolint:errcheck

		reply, err := m.Chat(context.Background(), "hi")
		require.NoError(t, err)
		assert.Equal(t, "brb", reply)
	})

	t.Run("closed manager rejects chat", func(t *testing.T) {
		m, _ := newManager(t, model.NewMockModel())
		require.NoError(t, m.Close())

		_, err := m.Chat(context.Background(), "hi")
		assert.Error(t, err)
	})

	t.Run("cancelled context rejects chat", func(t *testing.T) {
		m, _ := newManager(t, model.NewMockModel())
		defer m.Close() //nolint:errcheck

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := m.Chat(ctx, "hi")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestManagerSeedsPersistedState(t *testing.T) {
	store := persistence.NewInMemoryStore()
	gateway := persistence.NewGateway(store)

	// First session: two turns.
	first, err := New("alice", agent.NewModelAgent("assistant",
		model.NewMockModel(&model.Response{Text: "ok", FinishReason: "stop"})), gateway)
	require.NoError(t, err)

	_, err = first.Chat(context.Background(), "remember me")
	require.NoError(t, err)

	// Second session against the same store: context and history carry over.
	llm := model.NewMockModel(&model.Response{Text: "welcome back", FinishReason: "stop"})
	a := agent.NewModelAgent("assistant", llm)

	second, err := New("alice", a, gateway)
	require.NoError(t, err)

	assert.Equal(t, 1, second.Context().MessageCount())
	assert.Len(t, a.History(), 2)

	_, err = second.Chat(context.Background(), "hi again")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Context().MessageCount())
}

func TestManagerToolIntegration(t *testing.T) {
	registry := tool.NewRegistry()
	registry.Discover(builtin.Providers())

	llm := model.NewMockModel(
		&model.Response{
			ToolCalls:    []model.ToolCall{{ID: "call-1", Name: "calculator", Arguments: `{"expression":"6*7"}`}},
			FinishReason: "tool_calls",
		},
		&model.Response{Text: "the answer is 42", FinishReason: "stop"},
	)

	gateway := persistence.NewGateway(persistence.NewInMemoryStore())
	a := agent.NewModelAgent("assistant", llm)

	m, err := New("alice", a, gateway, func(o *Options) {
		o.Registry = registry
	})
	require.NoError(t, err)
	defer m.Close() //nolint:errcheck

	reply, err := m.Chat(context.Background(), "what is 6*7?")
	require.NoError(t, err)
	assert.Equal(t, "the answer is 42", reply)

	// The calculator stored its history in the context's extension data.
	saved := gateway.LoadContext(context.Background(), "alice")
	_, ok := saved.GetExtension("calc_history")
	assert.True(t, ok)

	stats := m.Stats()
	assert.Equal(t, 7, stats.ToolCount)
	assert.Equal(t, 1, stats.MessageCount)
	assert.Contains(t, m.Tools(), "calculator")
}
