package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	N    int    `json:"n"`
	Text string `json:"text"`
}

func backends(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	redisStore := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "athena.db"))
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
		"sqlite": sqliteStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStore_AppendTrimsOldest(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := 1; i <= 7; i++ {
				require.NoError(t, s.Append(ctx, "history", entry{N: i}, 5))
			}

			count, err := s.Count(ctx, "history")
			require.NoError(t, err)
			assert.Equal(t, 5, count)

			all, err := AllAs[entry](ctx, s, "history")
			require.NoError(t, err)
			require.Len(t, all, 5)
			assert.Equal(t, 3, all[0].N)
			assert.Equal(t, 7, all[4].N)
		})
	}
}

func TestStore_Uncapped(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				require.NoError(t, s.Append(ctx, SoulMemory, entry{N: i}, 0))
			}
			count, err := s.Count(ctx, SoulMemory)
			require.NoError(t, err)
			assert.Equal(t, 20, count)
		})
	}
}

func TestStore_Recent(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := 1; i <= 4; i++ {
				require.NoError(t, s.Append(ctx, "notes", entry{N: i}, 0))
			}

			recent, err := RecentAs[entry](ctx, s, "notes", 2)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			assert.Equal(t, 3, recent[0].N)
			assert.Equal(t, 4, recent[1].N)

			recent, err = RecentAs[entry](ctx, s, "notes", 10)
			require.NoError(t, err)
			assert.Len(t, recent, 4)

			empty, err := s.Recent(ctx, "missing", 3)
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestStore_Documents(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var got entry
			err := s.Get(ctx, DocActiveModel, &got)
			assert.True(t, errors.Is(err, ErrNotFound))

			require.NoError(t, s.Set(ctx, DocActiveModel, entry{Text: "groq"}))
			require.NoError(t, s.Set(ctx, DocActiveModel, entry{Text: "ollama"}))
			require.NoError(t, s.Get(ctx, DocActiveModel, &got))
			assert.Equal(t, "ollama", got.Text)

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{DocActiveModel}, keys)

			require.NoError(t, s.Delete(ctx, DocActiveModel))
			assert.ErrorIs(t, s.Get(ctx, DocActiveModel, &got), ErrNotFound)
		})
	}
}

func TestStore_CollectionsAndPurge(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Append(ctx, Alerts, entry{N: 1}, 10))
			require.NoError(t, s.Append(ctx, History, entry{N: 1}, 10))

			names, err := s.Collections(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{Alerts, History}, names)

			require.NoError(t, s.Purge(ctx, Alerts))
			names, err = s.Collections(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{History}, names)

			count, err := s.Count(ctx, Alerts)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, s.Append(ctx, "concurrent", entry{Text: fmt.Sprint(i)}, 10))
				}(i)
			}
			wg.Wait()

			count, err := s.Count(ctx, "concurrent")
			require.NoError(t, err)
			assert.Equal(t, 10, count)
		})
	}
}

func TestCapFor(t *testing.T) {
	assert.Equal(t, 500, CapFor(History))
	assert.Equal(t, 2000, CapFor(ClassifiedLogs))
	assert.Equal(t, 10000, CapFor(TokenUsage))
	assert.Zero(t, CapFor(SoulMemory))
	assert.Zero(t, CapFor("unknown"))
}
