package google

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/EasterCompany/dex-athena-service/internal/storage"
)

const maxEvents = 20

type Event struct {
	Summary  string `json:"summary"`
	Start    string `json:"start"`
	Location string `json:"location,omitempty"`
	AllDay   bool   `json:"all_day,omitempty"`
}

// UpcomingEvents returns primary-calendar events within the next days and
// caches them as schedule_context.
func (c *Client) UpcomingEvents(ctx context.Context, days int) ([]Event, error) {
	srv, err := c.calendarService(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	list, err := srv.Events.List("primary").
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.AddDate(0, 0, days).Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxEvents).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("calendar list failed: %w", err)
	}

	events := make([]Event, 0, len(list.Items))
	for _, item := range list.Items {
		e := Event{Summary: item.Summary, Location: item.Location}
		if item.Start != nil {
			if item.Start.DateTime != "" {
				e.Start = item.Start.DateTime
			} else {
				e.Start = item.Start.Date
				e.AllDay = true
			}
		}
		events = append(events, e)
	}

	if err := c.store.Set(ctx, storage.DocScheduleContext, events); err != nil {
		log.Printf("Google: failed to cache schedule context: %v", err)
	}
	return events, nil
}
