package templates

import (
	"fmt"
	"sort"
	"strings"
)

// EventTypes returns every known event type, sorted.
func EventTypes() []string {
	all := GetTemplates()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether eventType has a template.
func Known(eventType string) bool {
	_, ok := GetTemplates()[eventType]
	return ok
}

// Validate compares event data against its template. Fields the template
// does not declare are allowed; problems are returned in field order.
func Validate(eventType string, eventData map[string]interface{}) []ValidationError {
	template, ok := GetTemplates()[eventType]
	if !ok {
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unknown event type '%s', expected one of: %s", eventType, strings.Join(EventTypes(), ", ")),
		}}
	}

	fields := make([]string, 0, len(template.Fields))
	for name := range template.Fields {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	var problems []ValidationError
	for _, name := range fields {
		spec := template.Fields[name]
		value, present := eventData[name]
		switch {
		case !present && spec.Required:
			problems = append(problems, ValidationError{Field: name, Message: "required field is missing"})
		case present && value != nil && kindOf(value) != spec.Type:
			problems = append(problems, ValidationError{
				Field:   name,
				Message: fmt.Sprintf("must be of type %s, got %T", spec.Type, value),
			})
		}
	}
	return problems
}

// Check is Validate folded into a single error, nil when the event is valid.
func Check(eventType string, eventData map[string]interface{}) error {
	problems := Validate(eventType, eventData)
	if len(problems) == 0 {
		return nil
	}
	msgs := make([]string, len(problems))
	for i, p := range problems {
		msgs[i] = p.Error()
	}
	return fmt.Errorf("%s event: %s", eventType, strings.Join(msgs, "; "))
}

// kindOf maps a Go value to its template type name.
func kindOf(value interface{}) string {
	switch value.(type) {
	case string:
		return KindString
	case bool:
		return KindBoolean
	case int, int32, int64, uint, uint32, uint64, float32, float64:
		return KindNumber
	case map[string]interface{}, map[string]string:
		return KindObject
	case []interface{}, []string, []int, []float64, []bool:
		return KindArray
	default:
		return fmt.Sprintf("%T", value)
	}
}
