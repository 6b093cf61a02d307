package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/EasterCompany/dex-athena-service/config"
	"github.com/redis/go-redis/v9"
)

// Open connects to the backend named in cfg and verifies it responds.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.DSN,
			Password: cfg.Password,
		})
		store = NewRedisStore(client)
	case "sqlite":
		store, err = NewSQLiteStore(cfg.DSN)
		if err != nil {
			return nil, err
		}
	case "memory", "":
		log.Println("Storage: using in-memory store, data will not survive restarts")
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown storage backend '%s'", cfg.Backend)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to reach %s store: %w", cfg.Backend, err)
	}

	log.Printf("Storage: %s backend ready", cfg.Backend)
	return store, nil
}
