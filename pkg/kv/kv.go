// Package kv is the local key-value store daybook persists into.
package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv store closed")

// Store is a string key-value store. Values are opaque to the store; callers
// write JSON.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put writes one key.
	Put(ctx context.Context, key, value string) error
	// PutAll writes every entry or none of them.
	PutAll(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys with the given prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
