package builtin

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/tool"
)

func newToolContext(t *testing.T) (*core.ToolContext, *core.ConversationContext) {
	t.Helper()
	convo := core.NewConversationContext("tester")
	return core.NewToolContext(context.Background(), convo, "fc-1", nil), convo
}

func callTool(t *testing.T, tl tool.Tool, tc *core.ToolContext, args map[string]any) string {
	t.Helper()
	result, err := tl.Call(tc, args)
	require.NoError(t, err)
	s, ok := result.(string)
	require.True(t, ok, "tool result should be a string")
	return s
}

func TestProvidersDiscovery(t *testing.T) {
	r := tool.NewRegistry()
	registered := r.Discover(Providers())

	assert.Equal(t, []string{
		"calculator", "date_info", "password_generator",
		"task_manager", "text_analyzer", "unit_converter", "user_data",
	}, registered)

	listing := r.List()
	assert.Equal(t, "math", listing["calculator"].Category)
	assert.Equal(t, "security", listing["password_generator"].Category)
	assert.Equal(t, "2.0.0", listing["task_manager"].Version)
}

func TestCalculator(t *testing.T) {
	tl, _, err := NewCalculatorTool()
	require.NoError(t, err)

	tc, convo := newToolContext(t)

	t.Run("arithmetic", func(t *testing.T) {
		assert.Equal(t, "2+2 = 4", callTool(t, tl, tc, map[string]any{"expression": "2+2"}))
		assert.Equal(t, "sqrt(16) = 4", callTool(t, tl, tc, map[string]any{"expression": "sqrt(16)"}))
		assert.Equal(t, "2^10 = 1024", callTool(t, tl, tc, map[string]any{"expression": "2^10"}))
		assert.Equal(t, "(1+2)*3 = 9", callTool(t, tl, tc, map[string]any{"expression": "(1+2)*3"}))
		assert.Equal(t, "-4+2 = -2", callTool(t, tl, tc, map[string]any{"expression": "-4+2"}))
	})

	t.Run("precedence and division", func(t *testing.T) {
		assert.Equal(t, "2+3*4 = 14", callTool(t, tl, tc, map[string]any{"expression": "2+3*4"}))
		assert.Equal(t, "10/4 = 2.5", callTool(t, tl, tc, map[string]any{"expression": "10/4"}))
	})

	t.Run("errors become ERROR text", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{"expression": "1/0"})
		assert.True(t, strings.HasPrefix(out, "ERROR:"), out)

		out = callTool(t, tl, tc, map[string]any{"expression": "sqrt(-1)"})
		assert.True(t, strings.HasPrefix(out, "ERROR:"), out)

		out = callTool(t, tl, tc, map[string]any{"expression": "nope(3)"})
		assert.True(t, strings.HasPrefix(out, "ERROR:"), out)
	})

	t.Run("history is capped at ten entries", func(t *testing.T) {
		for i := 0; i < 15; i++ {
			callTool(t, tl, tc, map[string]any{"expression": "1+1"})
		}

		raw, ok := convo.GetExtension("calc_history")
		require.True(t, ok)

		var history []calcEntry
		require.NoError(t, reencode(raw, &history))
		assert.Len(t, history, 10)
	})
}

func TestPasswordGenerator(t *testing.T) {
	tl, _, err := NewPasswordTool()
	require.NoError(t, err)

	tc, convo := newToolContext(t)

	t.Run("defaults", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{})
		assert.Contains(t, out, "Generated password: ")
		assert.Contains(t, out, "Length: 12 characters")
	})

	t.Run("excludes ambiguous characters", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{"length": 64.0})
		line := strings.SplitN(out, "\n", 2)[0]
		password := strings.TrimPrefix(line, "Generated password: ")
		assert.Len(t, password, 64)
		assert.False(t, strings.ContainsAny(password, "0O1lI"))
	})

	t.Run("length bounds", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{"length": 3.0})
		assert.True(t, strings.HasPrefix(out, "ERROR:"), out)

		out = callTool(t, tl, tc, map[string]any{"length": 129.0})
		assert.True(t, strings.HasPrefix(out, "ERROR:"), out)
	})

	t.Run("stats accumulate", func(t *testing.T) {
		raw, ok := convo.GetExtension("password_stats")
		require.True(t, ok)

		var stats passwordStats
		require.NoError(t, reencode(raw, &stats))
		assert.Equal(t, 2, stats.Generated)
	})
}

func TestTaskManager(t *testing.T) {
	tl, _, err := NewTaskTool()
	require.NoError(t, err)

	tc, _ := newToolContext(t)

	t.Run("lifecycle", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{"action": "add", "task": "buy milk", "priority": "high"})
		assert.Contains(t, out, "Added task #1 [high] buy milk")

		out = callTool(t, tl, tc, map[string]any{"action": "add", "task": "write report", "due_date": "2030-01-15"})
		assert.Contains(t, out, "#2")
		assert.Contains(t, out, "due 2030-01-15")

		out = callTool(t, tl, tc, map[string]any{"action": "list"})
		assert.Contains(t, out, "buy milk")
		assert.Contains(t, out, "write report")
		assert.Contains(t, out, "2 pending, 0 completed")

		out = callTool(t, tl, tc, map[string]any{"action": "complete", "task_id": 1.0})
		assert.Contains(t, out, "Completed task #1")

		out = callTool(t, tl, tc, map[string]any{"action": "search", "task": "report"})
		assert.Contains(t, out, "Found 1 task(s)")

		out = callTool(t, tl, tc, map[string]any{"action": "stats"})
		assert.Contains(t, out, "Total: 2")
		assert.Contains(t, out, "Pending: 1")
		assert.Contains(t, out, "Completed: 1")

		out = callTool(t, tl, tc, map[string]any{"action": "remove", "task_id": 2.0})
		assert.Contains(t, out, "Removed task #2")
	})

	t.Run("validation", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{"action": "add"})
		assert.True(t, strings.HasPrefix(out, "ERROR:"), out)

		out = callTool(t, tl, tc, map[string]any{"action": "add", "task": "x", "due_date": "15-01-2030"})
		assert.Contains(t, out, "YYYY-MM-DD")

		out = callTool(t, tl, tc, map[string]any{"action": "complete", "task_id": 99.0})
		assert.True(t, strings.HasPrefix(out, "ERROR:"), out)
	})

	t.Run("ids are not reused after removal", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{"action": "add", "task": "new task"})
		assert.Contains(t, out, "#3")
	})
}

func TestTextAnalyzer(t *testing.T) {
	tl, _, err := NewTextAnalyzerTool()
	require.NoError(t, err)

	tc, _ := newToolContext(t)

	t.Run("basic", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{"text": "Hello world. This is a test!"})
		assert.Contains(t, out, "Words: 6")
		assert.Contains(t, out, "Sentences: 2")
	})

	t.Run("detailed", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{"text": "aa bb aa", "analysis_type": "detailed"})
		assert.Contains(t, out, "Words: 3")
		assert.Contains(t, out, "aa(2)")
	})

	t.Run("sentiment", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{
			"text": "This is great, I love it, excellent work", "analysis_type": "sentiment",
		})
		assert.Contains(t, out, "Sentiment: positive")

		out = callTool(t, tl, tc, map[string]any{
			"text": "This is terrible, I hate it", "analysis_type": "sentiment",
		})
		assert.Contains(t, out, "Sentiment: negative")
	})

	t.Run("keywords", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{
			"text":          "golang services love golang because golang is fast",
			"analysis_type": "keywords",
		})
		assert.Contains(t, out, "golang (3x)")
	})

	t.Run("empty text", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{"text": "   "})
		assert.True(t, strings.HasPrefix(out, "ERROR:"), out)
	})
}

func TestUnitConverter(t *testing.T) {
	tl, _, err := NewUnitConverterTool()
	require.NoError(t, err)

	tc, convo := newToolContext(t)

	t.Run("temperature", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{
			"value": 100.0, "from_unit": "celsius", "to_unit": "fahrenheit", "precision": 1.0,
		})
		assert.Contains(t, out, "100 celsius = 212.0 fahrenheit")
	})

	t.Run("aliases normalize", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{
			"value": 1.0, "from_unit": "Kilometers", "to_unit": "Miles", "precision": 6.0,
		})
		assert.Contains(t, out, "1 km = 0.621371 miles")
	})

	t.Run("unsupported pair", func(t *testing.T) {
		out := callTool(t, tl, tc, map[string]any{
			"value": 1.0, "from_unit": "kg", "to_unit": "celsius",
		})
		assert.True(t, strings.HasPrefix(out, "ERROR:"), out)
	})

	t.Run("history recorded", func(t *testing.T) {
		raw, ok := convo.GetExtension("conversion_history")
		require.True(t, ok)

		var history []conversionEntry
		require.NoError(t, reencode(raw, &history))
		assert.Len(t, history, 2)
		assert.Equal(t, "temperature", history[0].Category)
	})
}

func TestDateInfo(t *testing.T) {
	tl, _, err := NewDateInfoTool()
	require.NoError(t, err)

	tc, _ := newToolContext(t)

	out := callTool(t, tl, tc, map[string]any{})
	assert.Contains(t, out, "Today is ")
	assert.Contains(t, out, "Current time: ")
	assert.Contains(t, out, "UTC")
}

func TestUserData(t *testing.T) {
	tl, _, err := NewUserDataTool()
	require.NoError(t, err)

	tc, convo := newToolContext(t)

	out := callTool(t, tl, tc, map[string]any{"action": "set", "key": "dog", "value": "Rex"})
	assert.Contains(t, out, "Stored dog = Rex")

	// Values are namespaced so they cannot clobber other tools' state.
	_, ok := convo.GetExtension("user.dog")
	assert.True(t, ok)

	out = callTool(t, tl, tc, map[string]any{"action": "get", "key": "dog"})
	assert.Contains(t, out, "dog = Rex")

	out = callTool(t, tl, tc, map[string]any{"action": "list"})
	assert.Contains(t, out, "dog")

	out = callTool(t, tl, tc, map[string]any{"action": "delete", "key": "dog"})
	assert.Contains(t, out, "Forgot")

	out = callTool(t, tl, tc, map[string]any{"action": "get", "key": "dog"})
	assert.Contains(t, out, "Nothing stored")

	// Deleting removes the key entirely; no tombstone survives in the
	// persisted extension data.
	_, ok = convo.GetExtension("user.dog")
	assert.False(t, ok)

	out = callTool(t, tl, tc, map[string]any{"action": "list"})
	assert.Contains(t, out, "No facts stored yet")

	out = callTool(t, tl, tc, map[string]any{"action": "delete", "key": "dog"})
	assert.Contains(t, out, "Nothing stored")
}
