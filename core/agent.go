package core

import "context"

// Agent is the opaque reasoning capability that composes a response to one
// user message. Implementations may internally invoke any number of attached
// tools before returning; the manager treats the whole call as a black box.
//
// Implementations must respect ctx cancellation and must not mutate convo
// beyond its extension map (tools write there via ToolContext).
type Agent interface {
	Name() string
	Run(ctx context.Context, message string, convo *ConversationContext) (string, error)
}

// HistorySeeder is optionally implemented by agents that can prime their
// conversational window from a persisted transcript. The manager type-asserts
// for it after loading recent history.
type HistorySeeder interface {
	SeedHistory(history []ChatMessage)
}
