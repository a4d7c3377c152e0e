package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultUserID is assigned when a context is constructed without an owner.
const DefaultUserID = "anonymous"

// UserPreferences holds per-user display and locale settings.
type UserPreferences struct {
	Language             string            `json:"language"`
	Timezone             string            `json:"timezone"`
	NotificationsEnabled bool              `json:"notifications_enabled"`
	PreferredUnits       map[string]string `json:"preferred_units"`
}

// DefaultPreferences returns the preference set applied to fresh contexts.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Language:             "en",
		Timezone:             "UTC",
		NotificationsEnabled: true,
		PreferredUnits: map[string]string{
			"temperature": "celsius",
			"distance":    "km",
			"weight":      "kg",
		},
	}
}

// SessionData tracks activity counters for one process-local session.
type SessionData struct {
	SessionID    string    `json:"session_id"`
	StartTime    time.Time `json:"start_time"`
	MessageCount int       `json:"message_count"`
	LastActivity time.Time `json:"last_activity"`
}

// ConversationContext is the durable per-user state object carrying
// preferences, session counters and the open extension map through which
// tools persist their own state. It is safe for concurrent access.
//
// Contract:
//   - UpdateActivity is called exactly once per inbound user message, before
//     the agent executes, so tools observe the updated counters
//   - MessageCount never decreases; LastActivity >= StartTime always
//   - Extension values must be JSON-serializable; violations surface as
//     errors at save time, not here
//   - Clone deep-copies maps for safe divergence between the live context
//     and a persistence snapshot.
type ConversationContext struct {
	UserID      string          `json:"user_id"`
	Preferences UserPreferences `json:"preferences"`
	Session     SessionData     `json:"session_data"`
	Extension   map[string]any  `json:"extension_data"`

	mu sync.RWMutex
}

// NewConversationContext creates a fresh context with default preferences and
// a new session. An empty userID falls back to DefaultUserID.
func NewConversationContext(userID string) *ConversationContext {
	if userID == "" {
		userID = DefaultUserID
	}

	now := time.Now().UTC()

	return &ConversationContext{
		UserID:      userID,
		Preferences: DefaultPreferences(),
		Session: SessionData{
			SessionID:    uuid.NewString(),
			StartTime:    now,
			LastActivity: now,
		},
		Extension: map[string]any{},
	}
}

// UpdateActivity touches LastActivity and increments MessageCount by one.
func (c *ConversationContext) UpdateActivity() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Session.LastActivity = time.Now().UTC()
	c.Session.MessageCount++
}

// MessageCount returns the number of processed user messages this session.
func (c *ConversationContext) MessageCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Session.MessageCount
}

// LastActivity returns the time of the most recent inbound message.
func (c *ConversationContext) LastActivity() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Session.LastActivity
}

// SessionInfo returns a copy of the session counters.
func (c *ConversationContext) SessionInfo() SessionData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Session
}

// GetPreferences returns a copy of the user preferences including the unit map.
func (c *ConversationContext) GetPreferences() UserPreferences {
	c.mu.RLock()
	defer c.mu.RUnlock()
	prefs := c.Preferences
	prefs.PreferredUnits = make(map[string]string, len(c.Preferences.PreferredUnits))
	for k, v := range c.Preferences.PreferredUnits {
		prefs.PreferredUnits[k] = v
	}
	return prefs
}

// GetExtension returns the value stored under key and an existence flag.
func (c *ConversationContext) GetExtension(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.Extension[key]
	return v, ok
}

// ExtensionOr returns the value stored under key or def when absent.
func (c *ConversationContext) ExtensionOr(key string, def any) any {
	if v, ok := c.GetExtension(key); ok {
		return v
	}
	return def
}

// SetExtension stores value under key, last-write-wins. There is no merge and
// no central size cap; retention is each tool's own policy.
func (c *ConversationContext) SetExtension(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Extension[key] = value
}

// DeleteExtension removes the value stored under key. Deleting an absent key
// is a no-op.
func (c *ConversationContext) DeleteExtension(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Extension, key)
}

// ExtensionKeys returns the extension keys in unspecified order.
func (c *ConversationContext) ExtensionKeys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.Extension))
	for k := range c.Extension {
		keys = append(keys, k)
	}
	return keys
}

// Restore overwrites preferences, session counters and extension data with
// previously persisted values. Used by stores when rehydrating a context;
// nil maps are replaced with empty ones so callers never see nil.
func (c *ConversationContext) Restore(prefs UserPreferences, session SessionData, extension map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prefs.PreferredUnits == nil {
		prefs.PreferredUnits = make(map[string]string)
	}
	if extension == nil {
		extension = make(map[string]any)
	}

	c.Preferences = prefs
	c.Session = session
	c.Extension = extension
}

// Clone returns a deep copy of the context safe for independent mutation.
func (c *ConversationContext) Clone() *ConversationContext {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := &ConversationContext{
		UserID:      c.UserID,
		Preferences: c.Preferences,
		Session:     c.Session,
		Extension:   make(map[string]any, len(c.Extension)),
	}

	clone.Preferences.PreferredUnits = make(map[string]string, len(c.Preferences.PreferredUnits))
	for k, v := range c.Preferences.PreferredUnits {
		clone.Preferences.PreferredUnits[k] = v
	}

	for k, v := range c.Extension {
		clone.Extension[k] = v
	}

	return clone
}
