package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no value exists for the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is the durable string-keyed blob store the background process
// persists its state through. The background execution context can be
// evicted at any time, so every write must be durable before returning.
type Store interface {
	Save(ctx context.Context, key string, value []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
