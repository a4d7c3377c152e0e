package core

import (
	"context"

	"github.com/hupe1980/chatmesh/logging"
)

// ToolContext is the constrained surface handed to tool implementations for
// one invocation. It exposes the owning user's conversation context (read
// access to preferences and counters, read/write access to extension data),
// the ambient cancellation context and a correlating function call ID.
//
// Tools hold no state of their own; everything they persist flows through
// SetData into the context's extension map.
type ToolContext struct {
	ctx            context.Context
	convo          *ConversationContext
	functionCallID string
	logger         logging.Logger
}

// NewToolContext binds a tool invocation to a conversation context. A nil
// logger is replaced with a no-op.
func NewToolContext(ctx context.Context, convo *ConversationContext, functionCallID string, logger logging.Logger) *ToolContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return &ToolContext{
		ctx:            ctx,
		convo:          convo,
		functionCallID: functionCallID,
		logger:         logger,
	}
}

// Context returns the cancellation context of the invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// UserID returns the owner of the conversation.
func (tc *ToolContext) UserID() string { return tc.convo.UserID }

// FunctionCallID correlates the model's call request with this execution.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// Logger returns the logger associated with the invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.logger }

// Preferences returns a copy of the user's preferences.
func (tc *ToolContext) Preferences() UserPreferences { return tc.convo.GetPreferences() }

// MessageCount returns the session's processed message counter.
func (tc *ToolContext) MessageCount() int { return tc.convo.MessageCount() }

// GetData retrieves a tool-owned value from the extension map.
func (tc *ToolContext) GetData(key string) (any, bool) { return tc.convo.GetExtension(key) }

// DataOr retrieves a tool-owned value or def when absent.
func (tc *ToolContext) DataOr(key string, def any) any { return tc.convo.ExtensionOr(key, def) }

// SetData stores a tool-owned value in the extension map, last-write-wins.
func (tc *ToolContext) SetData(key string, value any) { tc.convo.SetExtension(key, value) }

// DeleteData removes a tool-owned value from the extension map.
func (tc *ToolContext) DeleteData(key string) { tc.convo.DeleteExtension(key) }

// DataKeys lists the extension keys currently present.
func (tc *ToolContext) DataKeys() []string { return tc.convo.ExtensionKeys() }
