// Package sqlite implements the embedded storage backend for daybook. All
// records live in a single daybook.db file in the data directory.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// DBFileName is the database file created in the data directory.
const DBFileName = "daybook.db"

// ErrSchemaTooNew is returned when the database was written by a newer
// schema than this build understands.
var ErrSchemaTooNew = errors.New("database schema is newer than supported")

var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend on SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Open creates a backend and attaches it to cfg.
func Open(ctx context.Context, cfg types.Config) (*Backend, error) {
	b := NewBackend()
	if err := b.Attach(ctx, cfg); err != nil {
		return nil, err
	}
	return b, nil
}

// Attach creates DataDir if needed, opens daybook.db and brings the schema
// up to date. Existing data is kept.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(ctx context.Context, config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBFileName))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// One connection serializes writers and keeps transactions simple.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("opening database: %w", err)
	}
	if err := migrateSchema(ctx, db); err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// migrateSchema creates missing tables and indexes and records the schema
// version.
func migrateSchema(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("%w: %d", ErrSchemaTooNew, version)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schemaDDL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}
	return tx.Commit()
}

// Detach closes the database. After Detach, all operations return
// ErrBackendClosed. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		return err
	}
	return nil
}

// Close is Detach.
func (b *Backend) Close() error { return b.Detach() }

// Name returns types.BackendSQLite.
func (b *Backend) Name() string { return types.BackendSQLite }

// Activities returns the activities table accessor.
func (b *Backend) Activities() types.ActivityStore { return &activitiesTable{backend: b} }

// Categories returns the categories table accessor.
func (b *Backend) Categories() types.CategoryStore { return &categoriesTable{backend: b} }

// Settings returns the settings table accessor.
func (b *Backend) Settings() types.SettingsStore { return &settingsTable{backend: b} }

// Path returns the database file path, or "" when detached.
func (b *Backend) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return ""
	}
	dataDir := b.config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	return filepath.Join(dataDir, DBFileName)
}

// Replace clears all three tables and writes snap inside one transaction.
func (b *Backend) Replace(ctx context.Context, snap types.Snapshot) error {
	categories := make([]types.Category, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		c, err := c.Normalized()
		if err != nil {
			return err
		}
		categories = append(categories, c)
	}
	for key, raw := range snap.Settings {
		if !json.Valid(raw) {
			return fmt.Errorf("setting %s: %w", key, types.ErrInvalidSetting)
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrBackendClosed
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"activities", "categories", "settings"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	for _, a := range snap.Activities {
		if a.ID == "" {
			return types.ErrInvalidID
		}
		if _, err := tx.ExecContext(ctx, upsertActivity, a.ID, a.Date, a.Time, a.Duration, a.Name, a.Category); err != nil {
			return fmt.Errorf("writing activity %s: %w", a.ID, err)
		}
	}
	for _, c := range categories {
		if _, err := tx.ExecContext(ctx, upsertCategory, c.Name, c.Color); err != nil {
			return fmt.Errorf("writing category %s: %w", c.Name, err)
		}
	}
	for key, raw := range snap.Settings {
		if _, err := tx.ExecContext(ctx, upsertSetting, key, string(raw)); err != nil {
			return fmt.Errorf("writing setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing replace: %w", err)
	}
	return nil
}

// conn returns the open database while holding the read lock. The caller
// must call the returned release func.
func (b *Backend) conn() (*sql.DB, func(), error) {
	b.mu.RLock()
	if !b.attached {
		b.mu.RUnlock()
		return nil, nil, types.ErrBackendClosed
	}
	return b.db, b.mu.RUnlock, nil
}
