package builtin

import (
	"encoding/json"

	"github.com/hupe1980/chatmesh/tool"
)

// Providers returns the registration table for all builtin tools, keyed by
// tool name. Pass it to (*tool.Registry).Discover at boot.
func Providers() map[string]tool.Provider {
	return map[string]tool.Provider{
		"calculator":         NewCalculatorTool,
		"password_generator": NewPasswordTool,
		"task_manager":       NewTaskTool,
		"text_analyzer":      NewTextAnalyzerTool,
		"unit_converter":     NewUnitConverterTool,
		"date_info":          NewDateInfoTool,
		"user_data":          NewUserDataTool,
	}
}

// reencode round-trips a value through JSON into out. Extension data comes
// back from persistence as generic maps, so typed tool state is always
// rehydrated this way.
func reencode(value any, out any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, out)
}
