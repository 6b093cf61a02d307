package utils

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ServiceName identifies this service on the timeline and in reports.
const ServiceName = "athena"

// TimelineCollection is the record collection holding activity events.
const TimelineCollection = "timeline"

// TimelineCap bounds the number of events kept on the timeline.
const TimelineCap = 1000

// EventSink is the subset of the record store SendEvent needs.
type EventSink interface {
	Append(ctx context.Context, collection string, record any, cap int) error
}

// TimelineEvent mirrors types.Event; redeclared here to avoid an import cycle.
type TimelineEvent struct {
	ID        string          `json:"id"`
	Service   string          `json:"service"`
	Event     json.RawMessage `json:"event"`
	Timestamp int64           `json:"timestamp"`
}

// EventCheck validates event data before it is stored.
type EventCheck func(eventType string, eventData map[string]interface{}) error

var eventCheck atomic.Pointer[EventCheck]

// SetEventCheck installs a check run by SendEvent. Events that fail it are
// still stored and the problem is logged.
func SetEventCheck(check EventCheck) {
	eventCheck.Store(&check)
}

// SendEvent records an event on the activity timeline. Failures are logged, never returned.
func SendEvent(ctx context.Context, sink EventSink, service string, eventType string, eventData map[string]interface{}) string {
	if sink == nil {
		return ""
	}
	if eventData == nil {
		eventData = map[string]interface{}{}
	}

	if check := eventCheck.Load(); check != nil && *check != nil {
		if err := (*check)(eventType, eventData); err != nil {
			log.Printf("Timeline: %v", err)
		}
	}

	eventData["type"] = eventType
	eventJSON, err := json.Marshal(eventData)
	if err != nil {
		log.Printf("Timeline: failed to encode %s event: %v", eventType, err)
		return ""
	}

	event := TimelineEvent{
		ID:        uuid.New().String(),
		Service:   service,
		Event:     eventJSON,
		Timestamp: time.Now().Unix(),
	}

	if err := sink.Append(ctx, TimelineCollection, event, TimelineCap); err != nil {
		log.Printf("Timeline: failed to store %s event: %v", eventType, err)
		return ""
	}
	return event.ID
}
