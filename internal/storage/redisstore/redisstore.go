// Package redisstore keeps collection documents as Redis string values.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"classifybot/internal/storage"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "classifybot:"

type Backend struct {
	client *redis.Client
}

func Open(ctx context.Context, url string) (*Backend, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Backend{client: client}, nil
}

func key(name string) string { return keyPrefix + name }

func (b *Backend) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := b.client.Get(ctx, key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", name, err)
	}
	return data, nil
}

func (b *Backend) Write(ctx context.Context, name string, data []byte) error {
	if err := b.client.Set(ctx, key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}

func (b *Backend) Close() error { return b.client.Close() }
