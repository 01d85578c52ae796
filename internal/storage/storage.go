// Package storage persists named collections of flat records as JSON
// documents on a pluggable backend.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by a Backend when the named document has never
	// been written.
	ErrNotFound       = errors.New("storage: document not found")
	ErrUnknownBackend = errors.New("storage: unknown backend")
)

type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Close() error
}
