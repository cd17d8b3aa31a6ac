package types

import (
	"context"
	"encoding/json"
	"errors"
)

// Backend is the single handle through which the rest of the program reaches
// persisted data. Two implementations exist, the embedded SQLite store and the
// key-value fallback; both present identical behavior.
type Backend interface {
	// Name reports which backend is active (BackendSQLite or BackendKV).
	Name() string

	Activities() ActivityStore
	Categories() CategoryStore
	Settings() SettingsStore

	// Replace clears activities, categories and settings and writes snap in
	// their place. Backends stage the write so a failure leaves either the
	// old or the new data set wherever the underlying store allows it.
	Replace(ctx context.Context, snap Snapshot) error

	// Close releases backend resources. Close is idempotent; after Close all
	// store operations return ErrBackendClosed.
	Close() error
}

// ActivityStore persists Activity records keyed by ID.
type ActivityStore interface {
	// GetAll returns every stored activity. Order is unspecified.
	GetAll(ctx context.Context) ([]Activity, error)

	// GetByDate returns the activities whose Date equals date exactly.
	GetByDate(ctx context.Context, date string) ([]Activity, error)

	// GetByDateRange returns the activities with start <= Date <= end,
	// comparing the canonical YYYY-MM-DD strings lexicographically.
	GetByDateRange(ctx context.Context, start, end string) ([]Activity, error)

	// Save inserts the activity or fully replaces the stored record with the
	// same ID. Returns ErrInvalidID when the ID is empty.
	Save(ctx context.Context, a Activity) (Activity, error)

	// Delete removes the activity with the given ID. Deleting an unknown ID
	// succeeds and changes nothing.
	Delete(ctx context.Context, id string) (bool, error)
}

// CategoryStore persists user-defined categories keyed by name. Built-in
// categories are never stored.
type CategoryStore interface {
	// GetAll returns the names of every stored category.
	GetAll(ctx context.Context) ([]string, error)

	// List returns every stored category with its color.
	List(ctx context.Context) ([]Category, error)

	// Save upserts the category by normalized name. An empty color is
	// replaced with the built-in or a generated color.
	Save(ctx context.Context, c Category) (Category, error)
}

// SettingsStore holds small JSON-serializable preferences.
type SettingsStore interface {
	// Get returns the raw JSON value stored under key and whether it exists.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)

	// Set stores value under key and returns its JSON encoding.
	Set(ctx context.Context, key string, value any) (json.RawMessage, error)
}

// Snapshot is a complete data set, used by import and migration.
type Snapshot struct {
	Activities []Activity
	Categories []Category
	Settings   map[string]json.RawMessage
}

// Backend lifecycle errors.
var (
	ErrBackendClosed      = errors.New("backend is closed")
	ErrAlreadyAttached    = errors.New("backend is already attached")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// Record errors.
var (
	ErrInvalidID       = errors.New("invalid activity ID")
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidTime     = errors.New("invalid time, expected HH:MM")
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")
	ErrInvalidSetting  = errors.New("invalid setting value")
	ErrCategoryExists  = errors.New("category already exists")
)
