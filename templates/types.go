package templates

// Field value kinds a timeline event may carry.
const (
	KindString  = "string"
	KindNumber  = "number"
	KindBoolean = "boolean"
	KindObject  = "object"
	KindArray   = "array"
)

// EventTemplate describes one kind of entry on Athena's activity timeline:
// what the bot did, the payload it records and how /timeline renders it.
type EventTemplate struct {
	Description string               `json:"description"`
	Format      string               `json:"format,omitempty"`  // English line, {field} placeholders
	Formats     map[string]string    `json:"formats,omitempty"` // per language, e.g. "zh-TW"
	Fields      map[string]FieldSpec `json:"fields"`
}

// FieldSpec is one payload field of a timeline event. Type is one of the
// Kind constants.
type FieldSpec struct {
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// ValidationError reports a timeline payload that does not match its template.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func validKind(kind string) bool {
	switch kind {
	case KindString, KindNumber, KindBoolean, KindObject, KindArray:
		return true
	}
	return false
}
