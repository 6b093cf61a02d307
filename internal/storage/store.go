// Package storage keeps the assistant's capped record collections and
// single-value documents behind one interface with Redis, SQLite and
// in-memory backends.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when a document does not exist.
var ErrNotFound = errors.New("storage: not found")

// Record collections.
const (
	History        = "history"
	SoulMemory     = "soul_memory"
	Alerts         = "alerts"
	TokenUsage     = "token_usage"
	ClassifiedLogs = "classified_logs"
	PluginRuns     = "plugin_runs"
	Bookings       = "bookings"
	Timeline       = "timeline"
)

// Document keys.
const (
	DocPersonality     = "personality"
	DocGoogleTokens    = "google_tokens"
	DocDriveFilesCache = "drive_files_cache"
	DocEmailContext    = "email_context"
	DocScheduleContext = "schedule_context"
	DocLastSync        = "last_sync"
	DocActiveModel     = "active_model"
)

// Caps bounds each collection. Collections not listed, or with a cap of 0, are uncapped.
var Caps = map[string]int{
	History:        500,
	SoulMemory:     0,
	Alerts:         1000,
	TokenUsage:     10000,
	ClassifiedLogs: 2000,
	PluginRuns:     200,
	Bookings:       0,
	Timeline:       1000,
}

// CapFor returns the configured cap of a collection.
func CapFor(collection string) int {
	return Caps[collection]
}

// Store is implemented by every backend. Implementations are safe for concurrent use.
type Store interface {
	// Append adds record to the end of collection and trims the oldest
	// records so at most cap remain. cap <= 0 means uncapped.
	Append(ctx context.Context, collection string, record any, cap int) error
	// Recent returns up to n of the newest records, oldest first.
	Recent(ctx context.Context, collection string, n int) ([]json.RawMessage, error)
	// All returns every record of collection, oldest first.
	All(ctx context.Context, collection string) ([]json.RawMessage, error)
	Count(ctx context.Context, collection string) (int, error)

	// Get decodes the document stored under key into dst.
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error

	// Collections lists the non-empty record collections.
	Collections(ctx context.Context) ([]string, error)
	// Keys lists the stored document keys.
	Keys(ctx context.Context) ([]string, error)
	// Purge removes a collection and a document of the same name.
	Purge(ctx context.Context, name string) error

	Ping(ctx context.Context) error
	Close() error
}

// AppendCapped appends record using the collection's configured cap.
func AppendCapped(ctx context.Context, s Store, collection string, record any) error {
	return s.Append(ctx, collection, record, CapFor(collection))
}

// RecentAs returns up to n of the newest records of collection decoded as T.
func RecentAs[T any](ctx context.Context, s Store, collection string, n int) ([]T, error) {
	raws, err := s.Recent(ctx, collection, n)
	if err != nil {
		return nil, err
	}
	return Decode[T](raws)
}

// AllAs returns every record of collection decoded as T.
func AllAs[T any](ctx context.Context, s Store, collection string) ([]T, error) {
	raws, err := s.All(ctx, collection)
	if err != nil {
		return nil, err
	}
	return Decode[T](raws)
}

// Decode unmarshals each raw record into T.
func Decode[T any](raws []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to decode record %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
