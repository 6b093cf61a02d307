package templates

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// FormatEventAsText converts an event to a human-readable text line
func FormatEventAsText(eventType string, eventData map[string]interface{}, service string, timestamp int64, timezone string, language string) string {
	timeStr := formatTimestamp(timestamp, timezone)

	var message string
	if template, exists := GetTemplates()[eventType]; exists {
		if formatStr := GetFormatString(template, ResolveLanguage(language)); formatStr != "" {
			message = interpolateFormat(formatStr, eventData)
		} else {
			message = formatGeneric(eventType, eventData)
		}
	} else {
		message = formatGeneric(eventType, eventData)
	}

	return fmt.Sprintf("%s | %s | %s", timeStr, service, message)
}

// Interpolate replaces only the named {key} placeholders, leaving other braces intact.
func Interpolate(format string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(format)
}

// interpolateFormat replaces {field} placeholders with actual values
func interpolateFormat(format string, eventData map[string]interface{}) string {
	result := format

	for key, value := range eventData {
		if key == "type" {
			continue
		}
		result = strings.ReplaceAll(result, "{"+key+"}", formatValue(value))
	}

	// Clean up any remaining unreplaced placeholders
	result = strings.ReplaceAll(result, "{", "")
	result = strings.ReplaceAll(result, "}", "")

	return result
}

// formatValue converts a value to a string for display
func formatValue(value interface{}) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.2f", v)
	case bool:
		return fmt.Sprintf("%t", v)
	case map[string]interface{}:
		jsonBytes, _ := json.Marshal(v)
		return string(jsonBytes)
	case []interface{}:
		if len(v) == 0 {
			return "[]"
		}
		if len(v) <= 3 {
			jsonBytes, _ := json.Marshal(v)
			return string(jsonBytes)
		}
		return fmt.Sprintf("[%d items]", len(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatGeneric creates a generic text representation when no format string exists
func formatGeneric(eventType string, eventData map[string]interface{}) string {
	keys := make([]string, 0, len(eventData))
	for key := range eventData {
		if key != "type" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	lines := []string{eventType}
	for _, key := range keys {
		valueStr := formatValue(eventData[key])
		if r := []rune(valueStr); len(r) > 100 {
			valueStr = string(r[:97]) + "..."
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", key, valueStr))
	}

	return strings.Join(lines, "\n")
}

// formatTimestamp converts a Unix timestamp to a formatted string in the specified timezone
func formatTimestamp(timestamp int64, timezone string) string {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return time.Unix(timestamp, 0).In(loc).Format("2006-01-02 15:04:05 MST")
}
