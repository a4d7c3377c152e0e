package core

import (
	"context"
	"errors"
)

// ErrNotFound is returned by LoadContext when no record exists for a user.
// The persistence gateway absorbs it; callers above the gateway never see it.
var ErrNotFound = errors.New("context not found")

// ContextStore persists conversation contexts and chat transcripts against a
// durable store. All operations take a context for cancellation/timeouts and
// return explicit errors; availability policy (degrade instead of halt) is
// layered on top by persistence.Gateway, not baked into implementations.
type ContextStore interface {
	// LoadContext returns the persisted context for userID, or ErrNotFound.
	LoadContext(ctx context.Context, userID string) (*ConversationContext, error)

	// SaveContext upserts the full context for userID atomically and bumps
	// the record's last_updated timestamp.
	SaveContext(ctx context.Context, userID string, convo *ConversationContext) error

	// AppendMessage appends one transcript entry with a store-assigned
	// timestamp. Append-only; entries are never updated or deleted.
	AppendMessage(ctx context.Context, userID, text, sender string) error

	// RecentHistory returns at most limit most recent entries for userID in
	// chronological order (oldest of the window first).
	RecentHistory(ctx context.Context, userID string, limit int) ([]ChatMessage, error)

	// Close releases the underlying store resources.
	Close() error
}
