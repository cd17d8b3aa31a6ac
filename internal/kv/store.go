// Package kv implements the key-value fallback backend. Every record type is
// serialized as one JSON blob under a fixed key, and every operation reads,
// edits and rewrites the whole blob. The blobs live in a Store: a directory of
// files or a Redis database.
package kv

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Store is a flat byte-blob store addressed by key.
type Store interface {
	// Get returns the value under key and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key succeeds.
	Delete(ctx context.Context, key string) error

	// Commit applies all sets and then all deletes, as a single atomic unit
	// where the store supports one.
	Commit(ctx context.Context, sets map[string][]byte, deletes []string) error

	// Close releases the store's resources.
	Close() error
}

// ErrInvalidKey is returned for keys that cannot be used as store keys.
var ErrInvalidKey = errors.New("invalid key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func checkKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
