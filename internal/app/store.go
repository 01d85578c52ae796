package app

import (
	"context"
	"fmt"

	"classifybot/internal/config"
	"classifybot/internal/logger"
	"classifybot/internal/storage"
	"classifybot/internal/storage/redisstore"
	"classifybot/internal/storage/sqlite"
)

func openBackend(ctx context.Context, cfg config.Config) (storage.Backend, error) {
	var (
		b   storage.Backend
		err error
	)
	switch cfg.StoreBackend {
	case "file":
		b, err = storage.NewFileBackend(cfg.DataDir)
	case "sqlite":
		b, err = sqlite.Open(cfg.DBPath)
	case "redis":
		b, err = redisstore.Open(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownBackend, cfg.StoreBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	logger.Debug().Str("backend", cfg.StoreBackend).Msg("store opened")
	return b, nil
}
