package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSchema(t *testing.T) {
	type args struct {
		Name   string  `json:"name" description:"The name"`
		Count  int     `json:"count,omitempty"`
		Mode   string  `json:"mode" enum:"fast,slow"`
		Factor float64 `json:"factor,omitempty"`
		hidden string  //nolint:unused
	}

	schema := CreateSchema(args{})

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)

	name := props["name"].(map[string]any)
	assert.Equal(t, "string", name["type"])
	assert.Equal(t, "The name", name["description"])

	count := props["count"].(map[string]any)
	assert.Equal(t, "integer", count["type"])

	mode := props["mode"].(map[string]any)
	assert.Equal(t, []any{"fast", "slow"}, mode["enum"])

	assert.NotContains(t, props, "hidden")
	assert.ElementsMatch(t, []string{"name", "mode"}, schema["required"])
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":  map[string]any{"type": "string"},
			"count": map[string]any{"type": "integer"},
			"mode":  map[string]any{"type": "string", "enum": []any{"fast", "slow"}},
		},
		"required": []string{"name"},
	}

	t.Run("valid", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"name": "x", "count": 3.0, "mode": "fast"}, schema)
		assert.NoError(t, err)
	})

	t.Run("missing required", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"count": 3.0}, schema)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name")
	})

	t.Run("wrong type", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"name": 7.0}, schema)
		assert.Error(t, err)
	})

	t.Run("non-integer number rejected for integer field", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"name": "x", "count": 2.5}, schema)
		assert.Error(t, err)
	})

	t.Run("enum violation", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"name": "x", "mode": "medium"}, schema)
		assert.Error(t, err)
	})

	t.Run("unknown fields pass through", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"name": "x", "extra": true}, schema)
		assert.NoError(t, err)
	})
}

func TestRenderTemplate(t *testing.T) {
	t.Run("no markers fast path", func(t *testing.T) {
		out, err := RenderTemplate("plain text", map[string]any{"x": 1})
		require.NoError(t, err)
		assert.Equal(t, "plain text", out)
	})

	t.Run("markers expand", func(t *testing.T) {
		out, err := RenderTemplate("hello {{.name}}", map[string]any{"name": "alice"})
		require.NoError(t, err)
		assert.Equal(t, "hello alice", out)
	})

	t.Run("invalid template errors", func(t *testing.T) {
		_, err := RenderTemplate("hello {{.name", nil)
		assert.Error(t, err)
	})
}
