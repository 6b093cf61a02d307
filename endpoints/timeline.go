package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/EasterCompany/dex-athena-service/templates"
	"github.com/EasterCompany/dex-athena-service/types"
	"github.com/EasterCompany/dex-athena-service/utils"
)

// defaultTimelineLength is used when no max parameter is given.
const defaultTimelineLength = 50

// GetTimelineHandler returns the newest activity events, as JSON (newest
// first) or, with format=text, as formatted lines (oldest first).
func GetTimelineHandler(store storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		maxLength := defaultTimelineLength
		maxStr := query.Get("max")
		if maxStr == "" {
			maxStr = query.Get("max_length")
		}
		if maxStr != "" {
			n, err := strconv.Atoi(maxStr)
			if err != nil || n <= 0 {
				http.Error(w, "max must be a positive integer", http.StatusBadRequest)
				return
			}
			maxLength = min(n, utils.TimelineCap)
		}

		eventType := query.Get("type")
		if eventType != "" && !templates.Known(eventType) {
			http.Error(w, fmt.Sprintf("unknown event type '%s'", eventType), http.StatusBadRequest)
			return
		}

		events, err := storage.RecentAs[types.Event](r.Context(), store, storage.Timeline, maxLength)
		if err != nil {
			http.Error(w, "Failed to read timeline", http.StatusInternalServerError)
			return
		}
		if eventType != "" {
			events = filterByType(events, eventType)
		}

		if query.Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)

			timezone := query.Get("timezone")
			language := templates.ResolveLanguage(query.Get("lang"))
			if language == "" {
				language = templates.DefaultLanguage
			}
			for _, event := range events {
				var eventData map[string]interface{}
				if err := json.Unmarshal(event.Event, &eventData); err != nil {
					continue
				}
				kind, _ := eventData["type"].(string)
				line := templates.FormatEventAsText(kind, eventData, event.Service, event.Timestamp, timezone, language)
				_, _ = fmt.Fprintln(w, line)
			}
			return
		}

		for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
			events[i], events[j] = events[j], events[i]
		}
		writeJSON(w, http.StatusOK, types.GetTimelineResponse{Events: events, Count: len(events)})
	}
}

func filterByType(events []types.Event, eventType string) []types.Event {
	out := events[:0]
	for _, e := range events {
		var head struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(e.Event, &head) == nil && head.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
