// Package kv defines the persistence port used for advisory caches:
// the wallet-mapping store, the price-history cache and per-token
// display metadata. Nothing stored here is authoritative; callers must
// tolerate the store being empty or cleared at any time.
package kv

import (
	"context"
	"errors"
)

// Store errors.
var (
	// ErrNotFound is returned when a requested key does not exist.
	ErrNotFound = errors.New("key not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// Store is a minimal key-value port. All writes are whole-record
// replace operations.
type Store interface {
	// Get retrieves the value for key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) (string, error)

	// Set writes value under key, replacing any existing value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// ListPrefix returns all keys with the given prefix, sorted ASC.
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
}
