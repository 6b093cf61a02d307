package templates

import (
	"strings"
	"testing"
)

func TestValidate_ValidEvent(t *testing.T) {
	eventData := map[string]interface{}{
		"type":     EventMessageReceived,
		"platform": "telegram",
		"chat_id":  "42",
		"user":     "ming",
		"text":     "hello",
	}

	errors := Validate(EventMessageReceived, eventData)
	if len(errors) != 0 {
		t.Errorf("Expected no validation errors, got %d: %v", len(errors), errors)
	}
}

func TestValidate_MissingRequiredField(t *testing.T) {
	eventData := map[string]interface{}{
		"type":     EventMessageReceived,
		"platform": "telegram",
		"chat_id":  "42",
	}

	errors := Validate(EventMessageReceived, eventData)
	if len(errors) != 2 {
		t.Errorf("Expected 2 validation errors, got %d", len(errors))
	}
}

func TestValidate_InvalidEventType(t *testing.T) {
	errors := Validate("invalid_type", map[string]interface{}{"type": "invalid_type"})
	if len(errors) == 0 {
		t.Fatal("Expected validation error for invalid event type")
	}
	if errors[0].Field != "type" {
		t.Errorf("Expected error field 'type', got '%s'", errors[0].Field)
	}
}

func TestValidate_WrongFieldType(t *testing.T) {
	eventData := map[string]interface{}{
		"name":        "weather",
		"kind":        "http",
		"success":     "yes",
		"duration_ms": float64(12),
	}

	errors := Validate(EventPluginExecuted, eventData)
	if len(errors) != 1 || errors[0].Field != "success" {
		t.Errorf("Expected a single error on 'success', got %v", errors)
	}
}

func TestEveryTemplateHasFormat(t *testing.T) {
	for name, tmpl := range GetTemplates() {
		if tmpl.Format == "" {
			t.Errorf("template %s has no default format", name)
		}
		if tmpl.Description == "" {
			t.Errorf("template %s has no description", name)
		}
		for field, spec := range tmpl.Fields {
			if !validKind(spec.Type) {
				t.Errorf("template %s field %s has unknown type %q", name, field, spec.Type)
			}
		}
	}
}

func TestValidationErrorMessage(t *testing.T) {
	problems := Validate(EventModelSwitched, map[string]interface{}{"model": 3})
	for _, p := range problems {
		if p.Field == "model" && p.Error() != "model: must be of type "+KindString+", got int" {
			t.Errorf("unexpected message %q", p.Error())
		}
	}
	if len(problems) == 0 {
		t.Error("expected a type problem for model")
	}
}

func TestFormatEventAsText_Languages(t *testing.T) {
	data := map[string]interface{}{"type": EventModelSwitched, "model": "groq"}

	en := FormatEventAsText(EventModelSwitched, data, "athena", 0, "UTC", "english")
	if en != "1970-01-01 00:00:00 UTC | athena | Switched model to groq" {
		t.Errorf("unexpected english line: %q", en)
	}

	zh := FormatEventAsText(EventModelSwitched, data, "athena", 0, "UTC", "zh")
	if !strings.HasSuffix(zh, "| athena | 已切換到 groq") {
		t.Errorf("unexpected chinese line: %q", zh)
	}

	// alert.raised has no translation and falls back to English
	alert := map[string]interface{}{"severity": "critical", "message": "offline", "alert_type": "x"}
	line := FormatEventAsText(EventAlertRaised, alert, "athena", 0, "", "zh-TW")
	if !strings.HasSuffix(line, "[critical] offline") {
		t.Errorf("unexpected alert line: %q", line)
	}
}

func TestFormatEventAsText_Generic(t *testing.T) {
	data := map[string]interface{}{"b": float64(2), "a": "x"}
	line := FormatEventAsText("custom.event", data, "athena", 0, "UTC", "")
	if !strings.HasSuffix(line, "custom.event\n  a: x\n  b: 2") {
		t.Errorf("unexpected generic format: %q", line)
	}
}

func TestInterpolate(t *testing.T) {
	got := Interpolate("Hi {user}, you said {args} in {chat_id} {json}", map[string]string{
		"user":    "ming",
		"args":    "hello",
		"chat_id": "42",
	})
	if got != "Hi ming, you said hello in 42 {json}" {
		t.Errorf("unexpected interpolation: %q", got)
	}
}

func TestResolveLanguage(t *testing.T) {
	cases := map[string]string{"": "", "ZH": "zh-TW", "English": "en", "繁體中文": "zh-TW", "fr": "fr"}
	for in, want := range cases {
		if got := ResolveLanguage(in); got != want {
			t.Errorf("ResolveLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCheck(t *testing.T) {
	ok := map[string]interface{}{"count": 3, "source": "file"}
	if err := Check(EventPluginsReloaded, ok); err != nil {
		t.Errorf("expected integer count to pass, got %v", err)
	}

	err := Check(EventPluginsReloaded, map[string]interface{}{"count": "three"})
	if err == nil {
		t.Fatal("expected an error for a string count")
	}
	if !strings.Contains(err.Error(), "count") {
		t.Errorf("expected the error to name the field, got %v", err)
	}
}

func TestKnown(t *testing.T) {
	if !Known(EventAlertRaised) {
		t.Errorf("%s should be known", EventAlertRaised)
	}
	if Known("alert") {
		t.Error("partial names should not be known")
	}
	if got := len(EventTypes()); got != len(GetTemplates()) {
		t.Errorf("EventTypes returned %d names, want %d", got, len(GetTemplates()))
	}
}
