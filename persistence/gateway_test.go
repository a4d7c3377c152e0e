package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatmesh/core"
)

// brokenStore fails every operation, simulating an unreachable backend.
type brokenStore struct{}

func (brokenStore) LoadContext(context.Context, string) (*core.ConversationContext, error) {
	return nil, errors.New("store unreachable")
}

func (brokenStore) SaveContext(context.Context, string, *core.ConversationContext) error {
	return errors.New("store unreachable")
}

func (brokenStore) AppendMessage(context.Context, string, string, string) error {
	return errors.New("store unreachable")
}

func (brokenStore) RecentHistory(context.Context, string, int) ([]core.ChatMessage, error) {
	return nil, errors.New("store unreachable")
}

func (brokenStore) Close() error { return nil }

func TestGatewayLoadFallsBackToFreshContext(t *testing.T) {
	t.Run("unknown user", func(t *testing.T) {
		g := NewGateway(NewInMemoryStore())

		convo := g.LoadContext(context.Background(), "newcomer")
		require.NotNil(t, convo)
		assert.Equal(t, "newcomer", convo.UserID)
		assert.Equal(t, 0, convo.MessageCount())
	})

	t.Run("store failure", func(t *testing.T) {
		g := NewGateway(brokenStore{})

		convo := g.LoadContext(context.Background(), "alice")
		require.NotNil(t, convo)
		assert.Equal(t, "alice", convo.UserID)
	})
}

func TestGatewayRoundTrip(t *testing.T) {
	g := NewGateway(NewInMemoryStore())
	ctx := context.Background()

	convo := g.LoadContext(ctx, "alice")
	convo.UpdateActivity()

	require.NoError(t, g.SaveContext(ctx, "alice", convo))
	require.NoError(t, g.AppendMessage(ctx, "alice", "hi", core.SenderUser))
	require.NoError(t, g.AppendMessage(ctx, "alice", "hello", core.SenderBot))

	reloaded := g.LoadContext(ctx, "alice")
	assert.Equal(t, 1, reloaded.MessageCount())

	history := g.RecentHistory(ctx, "alice", 10)
	require.Len(t, history, 2)
	assert.Equal(t, "hi", history[0].Text)
}

func TestGatewayWriteFailuresAreReported(t *testing.T) {
	g := NewGateway(brokenStore{})
	ctx := context.Background()

	err := g.SaveContext(ctx, "alice", core.NewConversationContext("alice"))
	assert.Error(t, err)

	err = g.AppendMessage(ctx, "alice", "hi", core.SenderUser)
	assert.Error(t, err)

	// History degrades to empty instead of failing.
	assert.Empty(t, g.RecentHistory(ctx, "alice", 10))
}
