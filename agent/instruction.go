// Package agent contains the model-backed conversational agent: it resolves
// the system instruction, maintains the in-memory message history, drives the
// tool calling loop against a model.Model and feeds tool results back until
// the model produces a final text answer.
package agent

import (
	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/internal/util"
)

// InstructionProvider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from the conversation context,
// environment, etc.
type InstructionProvider interface {
	Instruction(convo *core.ConversationContext) (string, error)
}

// InstructionFunc adapts an ordinary function to an InstructionProvider.
type InstructionFunc func(convo *core.ConversationContext) (string, error)

// Instruction implements InstructionProvider.
func (f InstructionFunc) Instruction(convo *core.ConversationContext) (string, error) {
	return f(convo)
}

// Instruction represents either a static instruction string or a dynamic
// provider. Static texts may contain {{.key}} template markers expanded from
// the conversation context at resolve time: user_id, message_count, language,
// timezone.
type Instruction struct {
	text     string
	provider InstructionProvider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p InstructionProvider) Instruction {
	return Instruction{provider: p}
}

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.ConversationContext) (string, error)) Instruction {
	return Instruction{provider: InstructionFunc(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider or expanding
// template markers as needed.
func (i Instruction) Resolve(convo *core.ConversationContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(convo)
	}

	prefs := convo.GetPreferences()

	return util.RenderTemplate(i.text, map[string]any{
		"user_id":       convo.UserID,
		"message_count": convo.MessageCount(),
		"language":      prefs.Language,
		"timezone":      prefs.Timezone,
	})
}
