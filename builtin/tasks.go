package builtin

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/tool"
)

const tasksKey = "tasks"

type taskItem struct {
	ID            int    `json:"id"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
	DueDate       string `json:"due_date,omitempty"`
	Created       string `json:"created"`
	Completed     bool   `json:"completed"`
	CompletedDate string `json:"completed_date,omitempty"`
}

type taskState struct {
	Tasks          []taskItem `json:"tasks"`
	NextID         int        `json:"next_id"`
	CompletedCount int        `json:"completed_count"`
}

var priorityRank = map[string]int{"high": 1, "medium": 2, "low": 3}

// NewTaskTool builds the personal task manager. Tasks live under "tasks" in
// the user's extension data and survive restarts through persistence.
func NewTaskTool() (tool.Tool, tool.Metadata, error) {
	md := tool.Metadata{
		Description: "Manage personal tasks with priorities and due dates",
		Version:     "2.0.0",
		Author:      "Productivity Team",
		Category:    "productivity",
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"description": "Operation to perform",
				"enum":        []any{"add", "list", "complete", "remove", "search", "stats"},
			},
			"task": map[string]any{
				"type":        "string",
				"description": "Task description (add) or search term (search)",
			},
			"task_id": map[string]any{
				"type":        "integer",
				"description": "Task ID for complete/remove",
			},
			"priority": map[string]any{
				"type":        "string",
				"description": "Task priority, default medium",
				"enum":        []any{"low", "medium", "high"},
			},
			"due_date": map[string]any{
				"type":        "string",
				"description": "Due date in YYYY-MM-DD format",
			},
		},
		"required": []string{"action"},
	}

	t := tool.NewFunctionTool("task_manager", md.Description, schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			state := taskState{NextID: 1}
			if raw, ok := tc.GetData(tasksKey); ok {
				_ = reencode(raw, &state)
				if state.NextID < 1 {
					state.NextID = 1
				}
			}

			action, _ := args["action"].(string)

			switch action {
			case "add":
				return addTask(tc, &state, args), nil
			case "list":
				return listTasks(&state), nil
			case "complete":
				return completeTask(tc, &state, intArg(args, "task_id", 0)), nil
			case "remove":
				return removeTask(tc, &state, intArg(args, "task_id", 0)), nil
			case "search":
				return searchTasks(&state, stringArg(args, "task", "")), nil
			case "stats":
				return taskStats(&state), nil
			default:
				return "ERROR: invalid action, use: add, list, complete, remove, search, stats", nil
			}
		})

	return t, md, nil
}

func addTask(tc *core.ToolContext, state *taskState, args map[string]any) string {
	description := strings.TrimSpace(stringArg(args, "task", ""))
	if description == "" {
		return "ERROR: provide a task description"
	}

	priority := stringArg(args, "priority", "medium")
	if _, ok := priorityRank[priority]; !ok {
		priority = "medium"
	}

	dueDate := stringArg(args, "due_date", "")
	if dueDate != "" {
		if _, err := time.Parse("2006-01-02", dueDate); err != nil {
			return "ERROR: invalid due date, use YYYY-MM-DD"
		}
	}

	item := taskItem{
		ID:          state.NextID,
		Description: description,
		Priority:    priority,
		DueDate:     dueDate,
		Created:     time.Now().UTC().Format(time.RFC3339),
	}

	state.Tasks = append(state.Tasks, item)
	state.NextID++
	tc.SetData(tasksKey, state)

	dueInfo := ""
	if dueDate != "" {
		dueInfo = fmt.Sprintf(" (due %s)", dueDate)
	}

	return fmt.Sprintf("Added task #%d [%s] %s%s", item.ID, priority, description, dueInfo)
}

func listTasks(state *taskState) string {
	if len(state.Tasks) == 0 {
		return "No tasks yet."
	}

	var pending, completed []taskItem
	for _, t := range state.Tasks {
		if t.Completed {
			completed = append(completed, t)
		} else {
			pending = append(pending, t)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return priorityRank[pending[i].Priority] < priorityRank[pending[j].Priority]
	})

	var sb strings.Builder
	sb.WriteString("YOUR TASKS:\n")

	if len(pending) > 0 {
		sb.WriteString("\nPending:\n")
		for _, t := range pending {
			dueInfo := ""
			if t.DueDate != "" {
				dueInfo = " due " + t.DueDate
			}
			fmt.Fprintf(&sb, "  #%d [%s] %s%s\n", t.ID, t.Priority, t.Description, dueInfo)
		}
	}

	if len(completed) > 0 {
		fmt.Fprintf(&sb, "\nCompleted (%d):\n", len(completed))
		start := len(completed) - 3
		if start < 0 {
			start = 0
		}
		for _, t := range completed[start:] {
			fmt.Fprintf(&sb, "  #%d %s\n", t.ID, t.Description)
		}
	}

	fmt.Fprintf(&sb, "\nTotal: %d pending, %d completed", len(pending), len(completed))

	return sb.String()
}

func completeTask(tc *core.ToolContext, state *taskState, taskID int) string {
	if taskID <= 0 {
		return "ERROR: provide a task ID"
	}

	for i := range state.Tasks {
		t := &state.Tasks[i]
		if t.ID == taskID && !t.Completed {
			t.Completed = true
			t.CompletedDate = time.Now().UTC().Format(time.RFC3339)
			state.CompletedCount++
			tc.SetData(tasksKey, state)

			return fmt.Sprintf("Completed task #%d: %s", taskID, t.Description)
		}
	}

	return fmt.Sprintf("ERROR: task #%d not found or already completed", taskID)
}

func removeTask(tc *core.ToolContext, state *taskState, taskID int) string {
	if taskID <= 0 {
		return "ERROR: provide a task ID"
	}

	kept := state.Tasks[:0]
	removed := false
	for _, t := range state.Tasks {
		if t.ID == taskID {
			removed = true
			continue
		}
		kept = append(kept, t)
	}

	if !removed {
		return fmt.Sprintf("ERROR: task #%d not found", taskID)
	}

	state.Tasks = kept
	tc.SetData(tasksKey, state)

	return fmt.Sprintf("Removed task #%d", taskID)
}

func searchTasks(state *taskState, term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return "ERROR: provide a search term"
	}

	var matches []taskItem
	for _, t := range state.Tasks {
		if strings.Contains(strings.ToLower(t.Description), strings.ToLower(term)) {
			matches = append(matches, t)
		}
	}

	if len(matches) == 0 {
		return fmt.Sprintf("No tasks matching %q", term)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d task(s):\n", len(matches))
	for _, t := range matches {
		status := "pending"
		if t.Completed {
			status = "done"
		}
		fmt.Fprintf(&sb, "  #%d [%s, %s] %s\n", t.ID, t.Priority, status, t.Description)
	}

	return sb.String()
}

func taskStats(state *taskState) string {
	var pending, completed, overdue int
	priorities := map[string]int{"high": 0, "medium": 0, "low": 0}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	for _, t := range state.Tasks {
		if t.Completed {
			completed++
			continue
		}

		pending++
		priorities[t.Priority]++

		if t.DueDate != "" {
			if due, err := time.Parse("2006-01-02", t.DueDate); err == nil && due.Before(today) {
				overdue++
			}
		}
	}

	return fmt.Sprintf(
		"TASK STATS:\n  Total: %d\n  Pending: %d\n  Completed: %d\n"+
			"  High priority: %d\n  Medium priority: %d\n  Low priority: %d\n  Overdue: %d",
		len(state.Tasks), pending, completed,
		priorities["high"], priorities["medium"], priorities["low"], overdue,
	)
}
