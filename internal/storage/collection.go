package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"classifybot/internal/logger"

	"github.com/bytedance/sonic"
)

// Collection is a JSON array of T kept under one backend name. Every
// mutation is a load-modify-persist unit under the collection mutex.
type Collection[T any] struct {
	mu      sync.Mutex
	backend Backend
	name    string
}

func NewCollection[T any](backend Backend, name string) *Collection[T] {
	return &Collection[T]{backend: backend, name: name}
}

func (c *Collection[T]) Name() string { return c.name }

// Load returns the stored items. Absent or undecodable data yields an empty
// slice; only backend failures are returned as errors.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Mutate hands the current items to fn and persists its result when fn
// reports a change. An unchanged collection is never rewritten.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(items []T) ([]T, bool)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	next, changed := fn(items)
	if !changed {
		return nil
	}
	return c.save(ctx, next)
}

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	data, err := c.backend.Read(ctx, c.name)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := sonic.ConfigStd.Unmarshal(data, &items); err != nil {
		logger.Warn().Err(err).Str("collection", c.name).Msg("stored collection unreadable, treating as empty")
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := sonic.ConfigDefault.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}
	if err := c.backend.Write(ctx, c.name, data); err != nil {
		return fmt.Errorf("persist %s: %w", c.name, err)
	}
	return nil
}
