// Package tool implements the function / tool calling subsystem that lets the
// assistant invoke structured capabilities (computations, per-user state
// management, side-effects) with schema validated arguments, consistent error
// handling and rich metadata, plus the process-wide Registry that discovers
// and exposes them to an agent.
package tool

import (
	"fmt"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/internal/util"
)

// Tool defines the interface for extending the assistant with callable
// capabilities.
//
// Tools are stateless: all per-user state they keep flows through the
// ToolContext into the conversation context's extension map, never through
// tool-local fields. Implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Define a proper JSON schema for parameters
//   - Catch their own domain errors and return a user-facing string prefixed
//     with "ERROR:" instead of propagating them
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	// It is provided to the model to help it decide when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with validated arguments and a ToolContext
	// giving access to the user's preferences and extension data.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// Metadata describes a registered tool for introspection. Extra carries
// free-form additions beyond the well-known fields.
type Metadata struct {
	Description string         `json:"description"`
	Version     string         `json:"version"`
	Author      string         `json:"author,omitempty"`
	Category    string         `json:"category"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Descriptor pairs an invocable tool with its registry metadata.
type Descriptor struct {
	Name     string
	Tool     Tool
	Metadata Metadata
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
