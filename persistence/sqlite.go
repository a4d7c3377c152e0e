package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/chatmesh/core"
)

// SQLiteStore is a core.ContextStore backed by a SQLite database. The
// database is opened in WAL mode with foreign keys enabled; preferences,
// session data and extension data are stored as JSON columns so the schema
// survives additions to the context shape.
type SQLiteStore struct {
	db *sql.DB
}

// SQLiteOptions configures a SQLiteStore.
type SQLiteOptions struct {
	// MaxOpenConns bounds the connection pool. Defaults to 25.
	MaxOpenConns int
	// BusyTimeout is passed to SQLite to wait out short lock contention.
	// Defaults to 5 seconds.
	BusyTimeout time.Duration
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath and
// ensures the schema exists.
func NewSQLiteStore(dbPath string, optFns ...func(o *SQLiteOptions)) (*SQLiteStore, error) {
	opts := SQLiteOptions{
		MaxOpenConns: 25,
		BusyTimeout:  5 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// modernc's driver applies _pragma key/value pairs to every pooled
	// connection, so the busy timeout and foreign key enforcement hold for
	// the whole pool, not just the connection that ran the schema setup.
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		dbPath, opts.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS user_contexts (
		user_id TEXT PRIMARY KEY,
		preferences TEXT NOT NULL,
		session_data TEXT NOT NULL,
		extension_data TEXT NOT NULL DEFAULT '{}',
		last_updated INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES user_contexts(user_id) ON DELETE CASCADE,
		message_text TEXT NOT NULL,
		sender TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_history_user ON chat_history(user_id, id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LoadContext retrieves a user's conversation context, or core.ErrNotFound
// if the user has never been saved.
func (s *SQLiteStore) LoadContext(ctx context.Context, userID string) (*core.ConversationContext, error) {
	query := `SELECT preferences, session_data, extension_data FROM user_contexts WHERE user_id = ?`

	var prefsJSON, sessionJSON, extensionJSON string

	err := s.db.QueryRowContext(ctx, query, userID).Scan(&prefsJSON, &sessionJSON, &extensionJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan context row: %w", err)
	}

	convo := core.NewConversationContext(userID)

	var prefs core.UserPreferences
	if err := json.Unmarshal([]byte(prefsJSON), &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}

	var session core.SessionData
	if err := json.Unmarshal([]byte(sessionJSON), &session); err != nil {
		return nil, fmt.Errorf("decode session data: %w", err)
	}

	extension := make(map[string]any)
	if err := json.Unmarshal([]byte(extensionJSON), &extension); err != nil {
		return nil, fmt.Errorf("decode extension data: %w", err)
	}

	convo.Restore(prefs, session, extension)

	return convo, nil
}

// SaveContext upserts a user's conversation context.
func (s *SQLiteStore) SaveContext(ctx context.Context, userID string, convo *core.ConversationContext) error {
	snapshot := convo.Clone()

	prefsJSON, err := json.Marshal(snapshot.Preferences)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	sessionJSON, err := json.Marshal(snapshot.Session)
	if err != nil {
		return fmt.Errorf("encode session data: %w", err)
	}

	extensionJSON, err := json.Marshal(snapshot.Extension)
	if err != nil {
		return fmt.Errorf("encode extension data: %w", err)
	}

	query := `
	INSERT INTO user_contexts (user_id, preferences, session_data, extension_data, last_updated)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		preferences = excluded.preferences,
		session_data = excluded.session_data,
		extension_data = excluded.extension_data,
		last_updated = excluded.last_updated`

	_, err = s.db.ExecContext(ctx, query,
		userID, string(prefsJSON), string(sessionJSON), string(extensionJSON), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert context: %w", err)
	}

	return nil
}

// AppendMessage records a chat message in the user's transcript. The user's
// context row must exist first (SaveContext) or the foreign key rejects the
// insert.
func (s *SQLiteStore) AppendMessage(ctx context.Context, userID, text, sender string) error {
	query := `INSERT INTO chat_history (user_id, message_text, sender, timestamp) VALUES (?, ?, ?, ?)`

	// Nanosecond resolution keeps timestamps distinct for messages appended
	// within the same second; conversational order itself comes from the id.
	_, err := s.db.ExecContext(ctx, query, userID, text, sender, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}

	return nil
}

// RecentHistory returns up to limit of the user's most recent messages in
// chronological order. A limit <= 0 returns the full transcript.
func (s *SQLiteStore) RecentHistory(ctx context.Context, userID string, limit int) ([]core.ChatMessage, error) {
	query := `SELECT message_text, sender, timestamp FROM chat_history WHERE user_id = ? ORDER BY id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var msgs []core.ChatMessage
	for rows.Next() {
		var msg core.ChatMessage
		var ts int64

		if err := rows.Scan(&msg.Text, &msg.Sender, &ts); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}

		msg.UserID = userID
		msg.Timestamp = time.Unix(0, ts).UTC()
		msgs = append(msgs, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat history: %w", err)
	}

	// Newest-first from the query; flip to chronological for callers.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	return msgs, nil
}

// PurgeUser removes a user's context and, via the cascading foreign key,
// their transcript.
func (s *SQLiteStore) PurgeUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete chat history: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_contexts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete context: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	return nil
}
