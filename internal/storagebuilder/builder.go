package storagebuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/hackmate/hackathon-helper/internal/storage"
	memorystorage "github.com/hackmate/hackathon-helper/internal/storage/memory"
	"github.com/hackmate/hackathon-helper/internal/storage/redisdedup"
	sqlstorage "github.com/hackmate/hackathon-helper/internal/storage/sql"
)

type Config struct {
	StorageType string
	Database    sqlstorage.Config
	DedupType   string
	Redis       redisdedup.Config
}

func New(config Config) (storage.Storage, error) {
	switch config.StorageType {
	case "memory":
		return memorystorage.New(), nil
	case "sql":
		s := sqlstorage.New(config.Database)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := s.Connect(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database %s %d: %w", config.Database.Host, config.Database.Port, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type %s", config.StorageType)
	}
}

// NewDedup selects the reminder marker backend. The default reuses the
// main storage; "redis" switches to the SET NX tracker.
func NewDedup(config Config, main storage.Storage) (storage.DedupStorage, error) {
	switch config.DedupType {
	case "", "storage":
		return main, nil
	case "redis":
		t := redisdedup.New(config.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := t.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to redis %s %d: %w", config.Redis.Host, config.Redis.Port, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown dedup type %s", config.DedupType)
	}
}
