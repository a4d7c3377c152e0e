package builtin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/tool"
)

// userDataPrefix namespaces values written through the user_data tool so it
// cannot clobber state owned by other tools.
const userDataPrefix = "user."

// NewUserDataTool builds the free-form user memory tool. It lets the model
// remember small facts for a user ("remember that my dog is called Rex")
// under namespaced keys in extension data.
func NewUserDataTool() (tool.Tool, tool.Metadata, error) {
	md := tool.Metadata{
		Description: "Remember, recall, list and forget small facts about the user",
		Version:     "1.0.0",
		Author:      "ChatMesh Team",
		Category:    "memory",
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"description": "Operation to perform",
				"enum":        []any{"get", "set", "list", "delete"},
			},
			"key": map[string]any{
				"type":        "string",
				"description": "Fact name, e.g. favorite_color",
			},
			"value": map[string]any{
				"type":        "string",
				"description": "Fact value (set only)",
			},
		},
		"required": []string{"action"},
	}

	t := tool.NewFunctionTool("user_data", md.Description, schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			action, _ := args["action"].(string)
			key := strings.TrimSpace(stringArg(args, "key", ""))

			switch action {
			case "get":
				if key == "" {
					return "ERROR: provide a key", nil
				}
				v, ok := tc.GetData(userDataPrefix + key)
				if !ok || v == nil {
					return fmt.Sprintf("Nothing stored under %q", key), nil
				}
				return fmt.Sprintf("%s = %v", key, v), nil

			case "set":
				if key == "" {
					return "ERROR: provide a key", nil
				}
				value := stringArg(args, "value", "")
				if value == "" {
					return "ERROR: provide a value", nil
				}
				tc.SetData(userDataPrefix+key, value)
				return fmt.Sprintf("Stored %s = %s", key, value), nil

			case "delete":
				if key == "" {
					return "ERROR: provide a key", nil
				}
				if _, ok := tc.GetData(userDataPrefix + key); !ok {
					return fmt.Sprintf("Nothing stored under %q", key), nil
				}
				tc.DeleteData(userDataPrefix + key)
				return fmt.Sprintf("Forgot %q", key), nil

			case "list":
				var keys []string
				for _, k := range tc.DataKeys() {
					if strings.HasPrefix(k, userDataPrefix) {
						if v, ok := tc.GetData(k); ok && v != nil {
							keys = append(keys, strings.TrimPrefix(k, userDataPrefix))
						}
					}
				}
				if len(keys) == 0 {
					return "No facts stored yet.", nil
				}
				sort.Strings(keys)
				return "Stored facts: " + strings.Join(keys, ", "), nil

			default:
				return "ERROR: invalid action, use: get, set, list, delete", nil
			}
		})

	return t, md, nil
}
