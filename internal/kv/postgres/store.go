package postgres

import (
	"context"
	"fmt"

	"sui-launchpad/internal/kv"
)

// Store is a PostgreSQL implementation of kv.Store backed by a single
// kv_entries table. Writes are whole-record upserts.
type Store struct {
	pool *Pool
}

// NewStore creates a new postgres-backed key-value store.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the kv_entries table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kv_entries (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create kv_entries table: %w", err)
	}
	return nil
}

// Get retrieves the value for key. Returns kv.ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", kv.ErrInvalidInput
	}

	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM kv_entries WHERE key = $1`, key,
	).Scan(&value)
	if err != nil {
		if isNotFoundError(err) {
			return "", kv.ErrNotFound
		}
		return "", fmt.Errorf("select kv entry: %w", err)
	}

	return value, nil
}

// Set writes value under key, replacing any existing value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return kv.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_entries (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("upsert kv entry: %w", err)
	}

	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return kv.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete kv entry: %w", err)
	}

	return nil
}

// ListPrefix returns all keys with the given prefix, sorted ASC.
func (s *Store) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT key FROM kv_entries
		WHERE key LIKE $1 || '%'
		ORDER BY key ASC
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("select kv keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan kv key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kv keys: %w", err)
	}

	return keys, nil
}

var _ kv.Store = (*Store)(nil)
