package types

import (
	"encoding/json"
)

// Event represents a single entry on the activity timeline
type Event struct {
	ID        string          `json:"id"`
	Service   string          `json:"service"`
	Event     json.RawMessage `json:"event"`
	Timestamp int64           `json:"timestamp"`
}

// GetTimelineRequest represents query parameters for the timeline endpoint
type GetTimelineRequest struct {
	MaxLength int    `json:"max_length"`
	Format    string `json:"format,omitempty"` // "json" (default) or "text"
	Timezone  string `json:"timezone,omitempty"`
}

// GetTimelineResponse is the response for the timeline endpoint
type GetTimelineResponse struct {
	Events []Event `json:"events"`
	Count  int     `json:"count"`
}
