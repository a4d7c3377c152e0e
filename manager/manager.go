// Package manager wires the assistant together: it owns one user's
// conversation context, the tool registry attachment, the agent and the
// persistence gateway, and drives the per-message lifecycle.
package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/logging"
	"github.com/hupe1980/chatmesh/persistence"
	"github.com/hupe1980/chatmesh/tool"
)

// DefaultFallbackMessage is returned to the user when the agent fails.
const DefaultFallbackMessage = "Sorry, I ran into a problem processing that. Please try again."

// Options configures a Manager.
type Options struct {
	// Registry supplies the tools attached to the agent at construction.
	Registry *tool.Registry
	// HistoryLimit bounds how many persisted messages seed the agent.
	HistoryLimit int
	// FallbackMessage replaces the agent's answer when a turn fails.
	FallbackMessage string
	// TurnTimeout bounds a full agent turn. Zero disables the bound.
	TurnTimeout time.Duration
	// Logger receives manager diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// Manager orchestrates conversations for a single user.
//
// Construction loads the user's context and recent transcript through the
// persistence gateway and seeds the agent with them. Each Chat call then
// runs the full turn lifecycle: activity accounting, transcript logging,
// agent execution and context persistence.
//
// Availability policy: a failing agent yields the fallback message, and a
// failing store never aborts a turn; both are logged. Chat itself only
// errors when the manager is closed or the context is cancelled.
type Manager struct {
	userID      string
	agent       core.Agent
	gateway     *persistence.Gateway
	registry    *tool.Registry
	logger      logging.Logger
	fallback    string
	turnTimeout time.Duration

	mu     sync.Mutex
	convo  *core.ConversationContext
	closed bool
}

// New builds a Manager for userID, loading persisted state and attaching the
// registry's tools to the agent.
func New(userID string, agent core.Agent, gateway *persistence.Gateway, optFns ...func(o *Options)) (*Manager, error) {
	if agent == nil {
		return nil, fmt.Errorf("agent must not be nil")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway must not be nil")
	}

	opts := Options{
		HistoryLimit:    20,
		FallbackMessage: DefaultFallbackMessage,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	m := &Manager{
		userID:      userID,
		agent:       agent,
		gateway:     gateway,
		registry:    opts.Registry,
		logger:      opts.Logger,
		fallback:    opts.FallbackMessage,
		turnTimeout: opts.TurnTimeout,
	}

	if m.registry != nil {
		if binder, ok := agent.(tool.Binder); ok {
			count := m.registry.Attach(binder)
			m.logger.Info("manager.tools.attached", "user_id", userID, "count", count)
		} else {
			m.logger.Warn("manager.tools.skipped", "user_id", userID, "reason", "agent does not accept tools")
		}
	}

	ctx := context.Background()

	m.convo = gateway.LoadContext(ctx, userID)

	// Make sure the context row exists before any transcript writes.
	if err := gateway.SaveContext(ctx, userID, m.convo); err != nil {
		m.logger.Warn("manager.init.save_failed", "user_id", userID, "error", err.Error())
	}

	if opts.HistoryLimit > 0 {
		if seeder, ok := agent.(core.HistorySeeder); ok {
			history := gateway.RecentHistory(ctx, userID, opts.HistoryLimit)
			seeder.SeedHistory(history)
			m.logger.Debug("manager.history.seeded", "user_id", userID, "messages", len(history))
		}
	}

	m.logger.Info("manager.ready",
		"user_id", userID,
		"agent", agent.Name(),
		"session_id", m.convo.SessionInfo().SessionID,
	)

	return m, nil
}

// UserID returns the owning user.
func (m *Manager) UserID() string { return m.userID }

// Context returns the live conversation context.
func (m *Manager) Context() *core.ConversationContext {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.convo
}

// Chat processes one user message and returns the assistant's reply. Agent
// failures produce the fallback message, never an error; the turn is still
// recorded and the context still saved. An error is returned only when the
// manager is closed or ctx is done.
func (m *Manager) Chat(ctx context.Context, message string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", fmt.Errorf("manager is closed")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()

	m.convo.UpdateActivity()

	// Transcript failures degrade persistence, not the turn.
	_ = m.gateway.AppendMessage(ctx, m.userID, message, core.SenderUser)

	runCtx := ctx
	if m.turnTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.turnTimeout)
		defer cancel()
	}

	reply, err := m.agent.Run(runCtx, message, m.convo)
	if err != nil {
		m.logger.Error("manager.turn.failed",
			"user_id", m.userID,
			"error", err.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		reply = m.fallback
	} else {
		m.logger.Info("manager.turn.ok",
			"user_id", m.userID,
			"message_count", m.convo.MessageCount(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	_ = m.gateway.AppendMessage(ctx, m.userID, reply, core.SenderBot)
	_ = m.gateway.SaveContext(ctx, m.userID, m.convo)

	return reply, nil
}

// Stats summarizes the current session.
type Stats struct {
	UserID        string    `json:"user_id"`
	SessionID     string    `json:"session_id"`
	SessionStart  time.Time `json:"session_start"`
	LastActivity  time.Time `json:"last_activity"`
	MessageCount  int       `json:"message_count"`
	ToolCount     int       `json:"tool_count"`
	ExtensionKeys []string  `json:"extension_keys"`
}

// Stats returns a snapshot of session counters and tool availability.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := m.convo.SessionInfo()

	toolCount := 0
	if m.registry != nil {
		toolCount = m.registry.Len()
	}

	return Stats{
		UserID:        m.userID,
		SessionID:     session.SessionID,
		SessionStart:  session.StartTime,
		LastActivity:  session.LastActivity,
		MessageCount:  session.MessageCount,
		ToolCount:     toolCount,
		ExtensionKeys: m.convo.ExtensionKeys(),
	}
}

// Tools returns the registry catalog, or an empty map without a registry.
func (m *Manager) Tools() map[string]tool.Metadata {
	if m.registry == nil {
		return map[string]tool.Metadata{}
	}

	return m.registry.List()
}

// History returns up to limit persisted transcript messages, oldest first.
func (m *Manager) History(ctx context.Context, limit int) []core.ChatMessage {
	return m.gateway.RecentHistory(ctx, m.userID, limit)
}

// Close flushes the context one final time and closes the gateway. The
// manager rejects further Chat calls afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	_ = m.gateway.SaveContext(context.Background(), m.userID, m.convo)

	return m.gateway.Close()
}
