package kv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/mesh-intelligence/daybook/internal/fsutil"
)

// FileStore keeps each key in its own <key>.json file inside a directory.
// Writes go through a temp file and rename, so each key is replaced
// atomically; Commit across several keys is not atomic.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating the directory if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating kv directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get reads the file for key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, true, nil
}

// Set atomically replaces the file for key.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(s.path(key), value, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes the file for key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// Commit writes every set in key order, then removes every delete. A failure
// part way leaves the keys already written in place.
func (s *FileStore) Commit(ctx context.Context, sets map[string][]byte, deletes []string) error {
	keys := make([]string, 0, len(sets))
	for k := range sets {
		if err := checkKey(k); err != nil {
			return err
		}
		keys = append(keys, k)
	}
	for _, k := range deletes {
		if err := checkKey(k); err != nil {
			return err
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := s.Set(ctx, k, sets[k]); err != nil {
			return err
		}
	}
	for _, k := range deletes {
		if err := s.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op for FileStore.
func (s *FileStore) Close() error { return nil }
