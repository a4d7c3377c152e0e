package builtin

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/tool"
)

const conversionHistoryKey = "conversion_history"

// conversionHistoryLimit caps the per-user conversion log.
const conversionHistoryLimit = 20

type conversionEntry struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
}

type conversion struct {
	category string
	convert  func(float64) float64
}

type unitPair struct{ from, to string }

var conversions = map[unitPair]conversion{
	// Distance
	{"km", "miles"}: {"distance", func(x float64) float64 { return x * 0.621371 }},
	{"miles", "km"}: {"distance", func(x float64) float64 { return x * 1.60934 }},
	{"m", "ft"}:     {"distance", func(x float64) float64 { return x * 3.28084 }},
	{"ft", "m"}:     {"distance", func(x float64) float64 { return x * 0.3048 }},
	{"cm", "in"}:    {"distance", func(x float64) float64 { return x * 0.393701 }},
	{"in", "cm"}:    {"distance", func(x float64) float64 { return x * 2.54 }},
	{"km", "m"}:     {"distance", func(x float64) float64 { return x * 1000 }},
	{"m", "km"}:     {"distance", func(x float64) float64 { return x / 1000 }},
	{"m", "cm"}:     {"distance", func(x float64) float64 { return x * 100 }},
	{"cm", "m"}:     {"distance", func(x float64) float64 { return x / 100 }},

	// Temperature
	{"celsius", "fahrenheit"}: {"temperature", func(x float64) float64 { return x*9/5 + 32 }},
	{"fahrenheit", "celsius"}: {"temperature", func(x float64) float64 { return (x - 32) * 5 / 9 }},
	{"celsius", "kelvin"}:     {"temperature", func(x float64) float64 { return x + 273.15 }},
	{"kelvin", "celsius"}:     {"temperature", func(x float64) float64 { return x - 273.15 }},
	{"fahrenheit", "kelvin"}:  {"temperature", func(x float64) float64 { return (x-32)*5/9 + 273.15 }},
	{"kelvin", "fahrenheit"}:  {"temperature", func(x float64) float64 { return (x-273.15)*9/5 + 32 }},

	// Weight
	{"kg", "lb"}:  {"weight", func(x float64) float64 { return x * 2.20462 }},
	{"lb", "kg"}:  {"weight", func(x float64) float64 { return x * 0.453592 }},
	{"g", "oz"}:   {"weight", func(x float64) float64 { return x * 0.035274 }},
	{"oz", "g"}:   {"weight", func(x float64) float64 { return x * 28.3495 }},
	{"kg", "g"}:   {"weight", func(x float64) float64 { return x * 1000 }},
	{"g", "kg"}:   {"weight", func(x float64) float64 { return x / 1000 }},
	{"ton", "kg"}: {"weight", func(x float64) float64 { return x * 1000 }},
	{"kg", "ton"}: {"weight", func(x float64) float64 { return x / 1000 }},

	// Volume
	{"l", "gal"}:    {"volume", func(x float64) float64 { return x * 0.264172 }},
	{"gal", "l"}:    {"volume", func(x float64) float64 { return x * 3.78541 }},
	{"ml", "floz"}:  {"volume", func(x float64) float64 { return x * 0.033814 }},
	{"floz", "ml"}:  {"volume", func(x float64) float64 { return x * 29.5735 }},
	{"l", "ml"}:     {"volume", func(x float64) float64 { return x * 1000 }},
	{"ml", "l"}:     {"volume", func(x float64) float64 { return x / 1000 }},

	// Area
	{"m2", "ft2"}:   {"area", func(x float64) float64 { return x * 10.7639 }},
	{"ft2", "m2"}:   {"area", func(x float64) float64 { return x * 0.092903 }},
	{"km2", "mi2"}:  {"area", func(x float64) float64 { return x * 0.386102 }},
	{"mi2", "km2"}:  {"area", func(x float64) float64 { return x * 2.58999 }},

	// Speed
	{"kmh", "mph"}: {"speed", func(x float64) float64 { return x * 0.621371 }},
	{"mph", "kmh"}: {"speed", func(x float64) float64 { return x * 1.60934 }},
	{"ms", "kmh"}:  {"speed", func(x float64) float64 { return x * 3.6 }},
	{"kmh", "ms"}:  {"speed", func(x float64) float64 { return x / 3.6 }},

	// Pressure
	{"bar", "psi"}: {"pressure", func(x float64) float64 { return x * 14.5038 }},
	{"psi", "bar"}: {"pressure", func(x float64) float64 { return x * 0.0689476 }},
	{"atm", "bar"}: {"pressure", func(x float64) float64 { return x * 1.01325 }},
	{"bar", "atm"}: {"pressure", func(x float64) float64 { return x * 0.986923 }},

	// Energy
	{"cal", "j"}: {"energy", func(x float64) float64 { return x * 4.184 }},
	{"j", "cal"}: {"energy", func(x float64) float64 { return x * 0.239006 }},
	{"kwh", "j"}: {"energy", func(x float64) float64 { return x * 3600000 }},
	{"j", "kwh"}: {"energy", func(x float64) float64 { return x / 3600000 }},
}

var unitAliases = map[string]string{
	"kilometers": "km", "kilometer": "km",
	"meters": "m", "meter": "m",
	"centimeters": "cm", "centimeter": "cm",
	"mile": "miles", "mi": "miles",
	"feet": "ft", "foot": "ft",
	"inches": "in", "inch": "in",
	"°c": "celsius", "c": "celsius",
	"°f": "fahrenheit", "f": "fahrenheit",
	"°k": "kelvin", "k": "kelvin",
	"kilograms": "kg", "kilogram": "kg", "kilos": "kg",
	"grams": "g", "gram": "g",
	"pounds": "lb", "pound": "lb", "lbs": "lb",
	"ounces": "oz", "ounce": "oz",
	"liters": "l", "liter": "l", "litres": "l", "litre": "l",
	"milliliters": "ml", "milliliter": "ml",
	"gallons": "gal", "gallon": "gal",
	"km/h": "kmh", "kph": "kmh",
	"m/s": "ms",
	"calories": "cal", "calorie": "cal",
	"joules": "j", "joule": "j",
	"kilowatt-hours": "kwh", "kilowatt-hour": "kwh",
}

// NewUnitConverterTool builds the universal unit converter covering
// distance, temperature, weight, volume, area, speed, pressure and energy.
// A rolling conversion log is kept under "conversion_history".
func NewUnitConverterTool() (tool.Tool, tool.Metadata, error) {
	md := tool.Metadata{
		Description: "Convert between units of distance, temperature, weight, volume, area, speed, pressure and energy",
		Version:     "2.1.0",
		Author:      "Math Team",
		Category:    "utilities",
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value": map[string]any{
				"type":        "number",
				"description": "Value to convert",
			},
			"from_unit": map[string]any{
				"type":        "string",
				"description": "Source unit, e.g. km, celsius, kg",
			},
			"to_unit": map[string]any{
				"type":        "string",
				"description": "Target unit, e.g. miles, fahrenheit, lb",
			},
			"precision": map[string]any{
				"type":        "integer",
				"description": "Decimal places (0-10), default 4",
			},
		},
		"required": []string{"value", "from_unit", "to_unit"},
	}

	t := tool.NewFunctionTool("unit_converter", md.Description, schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			value := floatArg(args, "value", 0)
			fromUnit := normalizeUnit(stringArg(args, "from_unit", ""))
			toUnit := normalizeUnit(stringArg(args, "to_unit", ""))

			precision := intArg(args, "precision", 4)
			if precision < 0 || precision > 10 {
				precision = 4
			}

			conv, ok := conversions[unitPair{fromUnit, toUnit}]
			if !ok {
				return fmt.Sprintf("ERROR: unsupported conversion: %s -> %s", fromUnit, toUnit), nil
			}

			result := conv.convert(value)

			var history []conversionEntry
			if raw, ok := tc.GetData(conversionHistoryKey); ok {
				_ = reencode(raw, &history)
			}
			history = append(history, conversionEntry{
				From:      fmt.Sprintf("%v %s", value, fromUnit),
				To:        fmt.Sprintf("%v %s", result, toUnit),
				Category:  conv.category,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
			if len(history) > conversionHistoryLimit {
				history = history[len(history)-conversionHistoryLimit:]
			}
			tc.SetData(conversionHistoryKey, history)

			return fmt.Sprintf(
				"%s conversion: %v %s = %.*f %s (conversions so far: %d)",
				conv.category, value, fromUnit, precision, result, toUnit, len(history),
			), nil
		})

	return t, md, nil
}

func normalizeUnit(unit string) string {
	unit = strings.ToLower(strings.TrimSpace(unit))
	if alias, ok := unitAliases[unit]; ok {
		return alias
	}

	return unit
}
