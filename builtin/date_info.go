package builtin

import (
	"fmt"
	"time"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/tool"
)

// NewDateInfoTool builds the date/time tool. The current time is reported in
// the user's preferred timezone; unknown timezones fall back to UTC.
func NewDateInfoTool() (tool.Tool, tool.Metadata, error) {
	md := tool.Metadata{
		Description: "Report the current date, weekday and time in the user's timezone",
		Version:     "1.0.0",
		Author:      "ChatMesh Team",
		Category:    "time",
	}

	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}

	t := tool.NewFunctionTool("date_info", md.Description, schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			loc := time.UTC
			tz := tc.Preferences().Timezone
			if parsed, err := time.LoadLocation(tz); err == nil {
				loc = parsed
			} else {
				tc.Logger().Warn("date_info.bad_timezone", "timezone", tz)
			}

			now := time.Now().In(loc)

			return fmt.Sprintf(
				"Today is %s, %s %d, %d\nCurrent time: %s (%s)",
				now.Weekday(), now.Month(), now.Day(), now.Year(),
				now.Format("15:04:05"), loc.String(),
			), nil
		})

	return t, md, nil
}
