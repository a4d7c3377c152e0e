package persistence

import (
	"context"
	"errors"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/logging"
)

// Gateway wraps a core.ContextStore with the availability policy of the
// conversation manager: storage failures degrade persistence but never take
// a conversation down.
//
//   - LoadContext never fails. Unknown users and store errors both yield a
//     fresh default context; errors are logged so outages stay visible.
//   - RecentHistory yields an empty transcript on failure, logged likewise.
//   - SaveContext and AppendMessage log failures and return the error so the
//     caller can decide; the manager logs and continues the turn.
type Gateway struct {
	store  core.ContextStore
	logger logging.Logger
}

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	// Logger receives persistence diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// NewGateway wraps the given store.
func NewGateway(store core.ContextStore, optFns ...func(o *GatewayOptions)) *Gateway {
	opts := GatewayOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Gateway{store: store, logger: opts.Logger}
}

// Store exposes the wrapped store.
func (g *Gateway) Store() core.ContextStore { return g.store }

// LoadContext returns the user's persisted context, or a fresh default one
// when the user is unknown or the store is unavailable.
func (g *Gateway) LoadContext(ctx context.Context, userID string) *core.ConversationContext {
	convo, err := g.store.LoadContext(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			g.logger.Debug("persistence.load.fresh", "user_id", userID)
		} else {
			g.logger.Error("persistence.load.failed", "user_id", userID, "error", err.Error())
		}

		return core.NewConversationContext(userID)
	}

	g.logger.Debug("persistence.load.ok", "user_id", userID, "message_count", convo.MessageCount())

	return convo
}

// SaveContext persists the context. Failures are logged and returned.
func (g *Gateway) SaveContext(ctx context.Context, userID string, convo *core.ConversationContext) error {
	if err := g.store.SaveContext(ctx, userID, convo); err != nil {
		g.logger.Error("persistence.save.failed", "user_id", userID, "error", err.Error())

		return err
	}

	return nil
}

// AppendMessage records a transcript entry. Failures are logged and returned.
func (g *Gateway) AppendMessage(ctx context.Context, userID, text, sender string) error {
	if err := g.store.AppendMessage(ctx, userID, text, sender); err != nil {
		g.logger.Error("persistence.append.failed", "user_id", userID, "sender", sender, "error", err.Error())

		return err
	}

	return nil
}

// RecentHistory returns up to limit recent messages in chronological order,
// or an empty slice when the store is unavailable.
func (g *Gateway) RecentHistory(ctx context.Context, userID string, limit int) []core.ChatMessage {
	msgs, err := g.store.RecentHistory(ctx, userID, limit)
	if err != nil {
		g.logger.Error("persistence.history.failed", "user_id", userID, "error", err.Error())

		return nil
	}

	return msgs
}

// Close closes the wrapped store.
func (g *Gateway) Close() error { return g.store.Close() }
