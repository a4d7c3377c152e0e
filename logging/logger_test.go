package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("anything"))
}

func TestChatLoggerOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&Config{Level: LevelDebug, Format: "json", Output: &buf, Component: "test"})
	logger.Info("something happened", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "something happened", entry["msg"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "value", entry["key"])
}

func TestChatLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&Config{Level: LevelWarn, Format: "json", Output: &buf})
	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
	assert.Contains(t, buf.String(), "kept")
}

func TestChatLoggerWithUser(t *testing.T) {
	var buf bytes.Buffer

	base := New(&Config{Level: LevelInfo, Format: "json", Output: &buf})
	scoped := base.WithUser("alice", "session-1").WithComponent("manager")
	scoped.Info("turn done")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "alice", entry["user_id"])
	assert.Equal(t, "session-1", entry["session_id"])
	assert.Equal(t, "manager", entry["component"])
}

func TestLogToolCall(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&Config{Level: LevelInfo, Format: "json", Output: &buf})
	logger.LogToolCall("calculator", 5*time.Millisecond, true, nil)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "calculator", entry["tool_name"])
	assert.Equal(t, true, entry["success"])
}
