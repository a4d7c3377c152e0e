package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Level is a thin enum for user friendly level configuration decoupled from slog.
type Level int

const (
	// LevelDebug is the debug logging level.
	LevelDebug Level = iota
	// LevelInfo is the informational logging level.
	LevelInfo
	// LevelWarn is the warning logging level.
	LevelWarn
	// LevelError is the error logging level.
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines the minimal logging interface for chatmesh. Callers can
// provide their own implementation or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// NoOpLogger discards all log messages. Useful for tests or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// Config configures construction of a ChatLogger.
type Config struct {
	Level     Level
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
	UserID    string
	SessionID string
}

// DefaultConfig returns a baseline JSON info level configuration.
func DefaultConfig() *Config {
	return &Config{Level: LevelInfo, Format: "json", Output: os.Stdout}
}

// ChatLogger wraps slog.Logger adding contextual cloning helpers and domain
// convenience methods. It is cheap to copy via the With* methods.
type ChatLogger struct {
	logger    *slog.Logger
	level     Level
	component string
	userID    string
	sessionID string
}

// New builds a ChatLogger from a config (or defaults if nil).
func New(cfg *Config) *ChatLogger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	return &ChatLogger{
		logger:    slog.New(handler),
		level:     cfg.Level,
		component: cfg.Component,
		userID:    cfg.UserID,
		sessionID: cfg.SessionID,
	}
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "WARN":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l *ChatLogger) clone() *ChatLogger {
	nl := *l
	return &nl
}

// WithComponent sets the logical component (manager, registry, store, agent).
func (l *ChatLogger) WithComponent(c string) *ChatLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithUser attaches user and session identifiers.
func (l *ChatLogger) WithUser(userID, sessionID string) *ChatLogger {
	nl := l.clone()
	nl.userID = userID
	nl.sessionID = sessionID
	return nl
}

func (l *ChatLogger) attrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, 3)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.userID != "" {
		attrs = append(attrs, slog.String("user_id", l.userID))
	}
	if l.sessionID != "" {
		attrs = append(attrs, slog.String("session_id", l.sessionID))
	}
	return attrs
}

func (l *ChatLogger) log(level slog.Level, min Level, msg string, args []any) {
	if l.level > min {
		return
	}
	base := l.attrs()
	attrs := make([]slog.Attr, len(base), len(base)+len(args)/2)
	copy(attrs, base)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// Debug logs at debug level with key/value pairs.
func (l *ChatLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, LevelDebug, msg, args) }

// Info logs at info level with key/value pairs.
func (l *ChatLogger) Info(msg string, args ...any) { l.log(slog.LevelInfo, LevelInfo, msg, args) }

// Warn logs at warn level with key/value pairs.
func (l *ChatLogger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, LevelWarn, msg, args) }

// Error logs at error level with key/value pairs.
func (l *ChatLogger) Error(msg string, args ...any) { l.log(slog.LevelError, LevelError, msg, args) }

// LogToolCall records execution details for a tool invocation.
func (l *ChatLogger) LogToolCall(tool string, dur time.Duration, success bool, err error) {
	args := []any{"tool_name", tool, "duration_ms", dur.Milliseconds(), "success", success}
	if err != nil {
		args = append(args, "error", err.Error())
		l.Error("Tool execution failed", args...)
		return
	}
	l.Info("Tool execution completed", args...)
}

// LogModelCall records model call latency, token usage and success.
func (l *ChatLogger) LogModelCall(model string, tokens int, dur time.Duration, success bool, err error) {
	args := []any{"model", model, "token_count", tokens, "duration_ms", dur.Milliseconds(), "success", success}
	if err != nil {
		args = append(args, "error", err.Error())
		l.Error("Model call failed", args...)
		return
	}
	l.Info("Model call completed", args...)
}
