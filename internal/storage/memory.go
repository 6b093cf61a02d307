package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is a process-local Store used in development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]json.RawMessage
	documents   map[string]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]json.RawMessage),
		documents:   make(map[string]json.RawMessage),
	}
}

func (s *MemoryStore) Append(ctx context.Context, collection string, record any, cap int) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := append(s.collections[collection], data)
	if cap > 0 && len(items) > cap {
		items = append([]json.RawMessage(nil), items[len(items)-cap:]...)
	}
	s.collections[collection] = items
	return nil
}

func (s *MemoryStore) Recent(ctx context.Context, collection string, n int) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.collections[collection]
	if n <= 0 {
		return []json.RawMessage{}, nil
	}
	if n > len(items) {
		n = len(items)
	}
	return append([]json.RawMessage{}, items[len(items)-n:]...), nil
}

func (s *MemoryStore) All(ctx context.Context, collection string) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]json.RawMessage{}, s.collections[collection]...), nil
}

func (s *MemoryStore) Count(ctx context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection]), nil
}

func (s *MemoryStore) Get(ctx context.Context, key string, dst any) error {
	s.mu.RLock()
	data, ok := s.documents[key]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(data, dst)
}

func (s *MemoryStore) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	s.mu.Lock()
	s.documents[key] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.documents, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Collections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name, items := range s.collections {
		if len(items) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name := range s.documents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Purge(ctx context.Context, name string) error {
	s.mu.Lock()
	delete(s.collections, name)
	delete(s.documents, name)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
