package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/logging"
	"github.com/hupe1980/chatmesh/model"
	"github.com/hupe1980/chatmesh/tool"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Instruction        Instruction
	ToolTimeout        time.Duration
	MaxToolIterations  int
	MaxHistoryMessages int
	Logger             logging.Logger
}

// ModelAgent integrates a language model with registered tools to process
// natural language inputs and generate responses.
//
// A turn runs as a bounded loop: the model is called with the system
// instruction, the rolling history and the user message; any tool calls it
// requests are executed and their results fed back, until the model answers
// with plain text or the iteration cap is hit. Tool failures never abort the
// turn; they are returned to the model as error text so it can recover or
// explain.
//
// The agent keeps a rolling in-memory history, seeded from persistence at
// startup and trimmed to MaxHistoryMessages after every turn. All methods are
// safe for concurrent use, though turns for one user run sequentially.
type ModelAgent struct {
	name        string
	llm         model.Model
	instruction Instruction
	logger      logging.Logger

	toolTimeout        time.Duration
	maxToolIterations  int
	maxHistoryMessages int

	mu      sync.Mutex
	tools   map[string]tool.Tool
	history []model.Message
}

// NewModelAgent creates a model-backed agent with sensible defaults:
// 15-second tool timeout, 5 tool iterations per turn, 20-message history.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:        NewInstructionFromText(fmt.Sprintf("You are %s, a helpful assistant.", name)),
		ToolTimeout:        15 * time.Second,
		MaxToolIterations:  5,
		MaxHistoryMessages: 20,
		Logger:             logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelAgent{
		name:               name,
		llm:                llm,
		instruction:        opts.Instruction,
		logger:             opts.Logger,
		toolTimeout:        opts.ToolTimeout,
		maxToolIterations:  opts.MaxToolIterations,
		maxHistoryMessages: opts.MaxHistoryMessages,
		tools:              make(map[string]tool.Tool),
	}
}

// Name returns the agent's display name.
func (a *ModelAgent) Name() string { return a.name }

// BindTool makes a tool available for function calling. Implements
// tool.Binder so a registry can attach its whole catalog.
func (a *ModelAgent) BindTool(t tool.Tool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.tools[t.Name()] = t
}

// HasTool checks if a tool is bound to the agent.
func (a *ModelAgent) HasTool(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.tools[name]

	return ok
}

// SeedHistory replaces the rolling history with persisted chat messages,
// mapping stored senders onto chat roles. Implements core.HistorySeeder.
func (a *ModelAgent) SeedHistory(history []core.ChatMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = a.history[:0]
	for _, msg := range history {
		role := model.RoleUser
		if msg.Sender == core.SenderBot {
			role = model.RoleAssistant
		}
		a.history = append(a.history, model.Message{Role: role, Text: msg.Text})
	}
	a.trimHistoryLocked()
}

// History returns a copy of the rolling message history.
func (a *ModelAgent) History() []model.Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]model.Message, len(a.history))
	copy(out, a.history)

	return out
}

// Run processes a single user message and returns the final text response.
// Implements core.Agent.
func (a *ModelAgent) Run(ctx context.Context, message string, convo *core.ConversationContext) (string, error) {
	instruction, err := a.instruction.Resolve(convo)
	if err != nil {
		return "", fmt.Errorf("resolve instruction: %w", err)
	}

	a.mu.Lock()
	messages := make([]model.Message, 0, len(a.history)+2)
	messages = append(messages, model.Message{Role: model.RoleSystem, Text: instruction})
	messages = append(messages, a.history...)
	messages = append(messages, model.Message{Role: model.RoleUser, Text: message})
	toolDefs := a.toolDefinitionsLocked()
	a.mu.Unlock()

	a.logger.Debug("agent.run.start", "agent", a.name, "user_id", convo.UserID, "tools", len(toolDefs))

	var finalText string

	for iteration := 0; ; iteration++ {
		if iteration >= a.maxToolIterations {
			return "", fmt.Errorf("tool iteration limit (%d) reached without a final answer", a.maxToolIterations)
		}

		start := time.Now()

		resp, err := a.llm.Generate(ctx, model.Request{Messages: messages, Tools: toolDefs})
		if err != nil {
			a.logger.Error("agent.model.error", "agent", a.name, "error", err.Error())

			return "", fmt.Errorf("model generation failed: %w", err)
		}

		a.logger.Debug("agent.model.response",
			"agent", a.name,
			"duration_ms", time.Since(start).Milliseconds(),
			"tool_calls", len(resp.ToolCalls),
			"finish_reason", resp.FinishReason,
		)

		if !resp.HasToolCalls() {
			finalText = resp.Text
			break
		}

		messages = append(messages, model.Message{
			Role:      model.RoleAssistant,
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			result := a.executeToolCall(ctx, call, convo)
			messages = append(messages, model.Message{
				Role:       model.RoleTool,
				Text:       result,
				ToolCallID: call.ID,
			})
		}
	}

	a.mu.Lock()
	a.history = append(a.history,
		model.Message{Role: model.RoleUser, Text: message},
		model.Message{Role: model.RoleAssistant, Text: finalText},
	)
	a.trimHistoryLocked()
	a.mu.Unlock()

	return finalText, nil
}

// executeToolCall runs one requested tool invocation and returns the text to
// feed back to the model. Failures are converted into error text rather than
// propagated, so one bad call never kills the turn.
func (a *ModelAgent) executeToolCall(ctx context.Context, call model.ToolCall, convo *core.ConversationContext) string {
	a.mu.Lock()
	t, ok := a.tools[call.Name]
	a.mu.Unlock()

	if !ok {
		a.logger.Warn("agent.tool.unknown", "agent", a.name, "tool", call.Name)

		return fmt.Sprintf("ERROR: tool %q is not available", call.Name)
	}

	args := make(map[string]any)
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			a.logger.Warn("agent.tool.bad_args", "agent", a.name, "tool", call.Name, "error", err.Error())

			return fmt.Sprintf("ERROR: invalid arguments for tool %q: %v", call.Name, err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.toolTimeout)
	defer cancel()

	callID := call.ID
	if callID == "" {
		callID = uuid.NewString()
	}

	toolCtx := core.NewToolContext(callCtx, convo, callID, a.logger)

	result, err := t.Call(toolCtx, args)
	if err != nil {
		a.logger.Warn("agent.tool.failed", "agent", a.name, "tool", call.Name, "error", err.Error())

		return fmt.Sprintf("ERROR: %v", err)
	}

	switch v := result.(type) {
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

func (a *ModelAgent) toolDefinitionsLocked() []model.ToolDefinition {
	if len(a.tools) == 0 {
		return nil
	}

	defs := make([]model.ToolDefinition, 0, len(a.tools))
	for _, t := range a.tools {
		defs = append(defs, model.ToolDefinition{
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	return defs
}

func (a *ModelAgent) trimHistoryLocked() {
	if a.maxHistoryMessages > 0 && len(a.history) > a.maxHistoryMessages {
		a.history = a.history[len(a.history)-a.maxHistoryMessages:]
	}
}
