package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatmesh/core"
)

func newTestToolContext(t *testing.T) *core.ToolContext {
	t.Helper()
	convo := core.NewConversationContext("tester")
	return core.NewToolContext(context.Background(), convo, "fc-1", nil)
}

func TestFunctionTool(t *testing.T) {
	sumSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	t.Run("executes with valid arguments", func(t *testing.T) {
		sum := NewFunctionTool("calculate_sum", "Add two numbers", sumSchema,
			func(tc *core.ToolContext, args map[string]any) (any, error) {
				return args["a"].(float64) + args["b"].(float64), nil
			})

		assert.Equal(t, "calculate_sum", sum.Name())
		assert.Equal(t, "Add two numbers", sum.Description())

		result, err := sum.Call(newTestToolContext(t), map[string]any{"a": 2.0, "b": 3.0})
		require.NoError(t, err)
		assert.Equal(t, 5.0, result)
	})

	t.Run("rejects missing required argument", func(t *testing.T) {
		sum := NewFunctionTool("calculate_sum", "Add two numbers", sumSchema,
			func(tc *core.ToolContext, args map[string]any) (any, error) {
				return nil, nil
			})

		_, err := sum.Call(newTestToolContext(t), map[string]any{"a": 2.0})
		require.Error(t, err)

		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
		assert.Equal(t, "calculate_sum", toolErr.Tool)
	})

	t.Run("rejects wrong argument type", func(t *testing.T) {
		sum := NewFunctionTool("calculate_sum", "Add two numbers", sumSchema,
			func(tc *core.ToolContext, args map[string]any) (any, error) {
				return nil, nil
			})

		_, err := sum.Call(newTestToolContext(t), map[string]any{"a": "two", "b": 3.0})
		require.Error(t, err)

		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	})

	t.Run("wraps execution failures", func(t *testing.T) {
		failing := NewFunctionTool("boom", "Always fails", map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}, func(tc *core.ToolContext, args map[string]any) (any, error) {
			return nil, errors.New("kaput")
		})

		_, err := failing.Call(newTestToolContext(t), map[string]any{})
		require.Error(t, err)

		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
		assert.Equal(t, "kaput", toolErr.Message)
	})

	t.Run("preserves custom tool errors", func(t *testing.T) {
		failing := NewFunctionTool("quota", "Quota limited", map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}, func(tc *core.ToolContext, args map[string]any) (any, error) {
			return nil, NewToolError("quota", "limit reached", "QUOTA_EXCEEDED")
		})

		_, err := failing.Call(newTestToolContext(t), map[string]any{})
		require.Error(t, err)

		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "QUOTA_EXCEEDED", toolErr.Code)
	})

	t.Run("accesses conversation state through the tool context", func(t *testing.T) {
		echo := NewFunctionTool("whoami", "Report the current user", map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}, func(tc *core.ToolContext, args map[string]any) (any, error) {
			tc.SetData("whoami.calls", 1)
			return tc.UserID(), nil
		})

		convo := core.NewConversationContext("alice")
		tc := core.NewToolContext(context.Background(), convo, "fc-2", nil)

		result, err := echo.Call(tc, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, "alice", result)

		calls, ok := convo.GetExtension("whoami.calls")
		require.True(t, ok)
		assert.Equal(t, 1, calls)
	})
}

func TestNewFunctionToolFromStruct(t *testing.T) {
	type args struct {
		Expression string `json:"expression" description:"Math expression to evaluate"`
		Precision  int    `json:"precision,omitempty"`
	}

	ft := NewFunctionToolFromStruct("calculator", "Evaluate a math expression", args{},
		func(tc *core.ToolContext, a map[string]any) (any, error) {
			return a["expression"], nil
		})

	schema := ft.Parameters()
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "expression")
	assert.Contains(t, props, "precision")
	assert.Equal(t, []string{"expression"}, schema["required"])
}

func TestToolErrorMessage(t *testing.T) {
	err := NewToolError("calc", "division by zero", "EXECUTION_ERROR")
	assert.Equal(t, "tool error [EXECUTION_ERROR] in calc: division by zero", err.Error())

	bare := &ToolError{Tool: "calc", Message: "division by zero"}
	assert.Equal(t, "tool error in calc: division by zero", bare.Error())
}
