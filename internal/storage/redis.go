package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

const (
	KeyPrefix        = "athena:"
	recordsPrefix    = KeyPrefix + "records:"
	docPrefix        = KeyPrefix + "doc:"
	collectionsIndex = KeyPrefix + "index:collections"
	documentsIndex   = KeyPrefix + "index:documents"
)

// RedisStore keeps collections as lists and documents as string keys.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Append(ctx context.Context, collection string, record any, cap int) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	key := recordsPrefix + collection
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if cap > 0 {
		pipe.LTrim(ctx, key, int64(-cap), -1)
	}
	pipe.SAdd(ctx, collectionsIndex, collection)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to %s: %w", collection, err)
	}
	return nil
}

func (s *RedisStore) Recent(ctx context.Context, collection string, n int) ([]json.RawMessage, error) {
	if n <= 0 {
		return []json.RawMessage{}, nil
	}
	return s.lrange(ctx, collection, int64(-n))
}

func (s *RedisStore) All(ctx context.Context, collection string) ([]json.RawMessage, error) {
	return s.lrange(ctx, collection, 0)
}

func (s *RedisStore) lrange(ctx context.Context, collection string, start int64) ([]json.RawMessage, error) {
	items, err := s.client.LRange(ctx, recordsPrefix+collection, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", collection, err)
	}
	out := make([]json.RawMessage, len(items))
	for i, item := range items {
		out[i] = json.RawMessage(item)
	}
	return out, nil
}

func (s *RedisStore) Count(ctx context.Context, collection string) (int, error) {
	n, err := s.client.LLen(ctx, recordsPrefix+collection).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *RedisStore) Get(ctx context.Context, key string, dst any) error {
	data, err := s.client.Get(ctx, docPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, dst)
}

func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, docPrefix+key, data, 0)
	pipe.SAdd(ctx, documentsIndex, key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, docPrefix+key)
	pipe.SRem(ctx, documentsIndex, key)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Collections(ctx context.Context) ([]string, error) {
	return s.members(ctx, collectionsIndex)
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	return s.members(ctx, documentsIndex)
}

func (s *RedisStore) members(ctx context.Context, index string) ([]string, error) {
	names, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStore) Purge(ctx context.Context, name string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, recordsPrefix+name, docPrefix+name)
	pipe.SRem(ctx, collectionsIndex, name)
	pipe.SRem(ctx, documentsIndex, name)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
