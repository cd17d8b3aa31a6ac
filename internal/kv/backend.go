package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Fixed blob keys. The first two match the keys the browser build kept in
// localStorage, so exported blobs can be dropped in as-is.
const (
	KeyActivities     = "dailyActivities"
	KeyCategories     = "customCategories"
	KeyCategoryColors = "categoryColors"
	KeySettings       = "settings"
)

// DirName is the subdirectory of the data dir used by the file driver.
const DirName = "kv"

var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend over a Store.
type Backend struct {
	mu     sync.RWMutex
	store  Store
	closed bool
}

// NewBackend wraps store. The backend owns the store and closes it on Close.
func NewBackend(store Store) *Backend {
	return &Backend{store: store}
}

// Open builds the Store described by cfg.KV and wraps it. The file driver
// keeps its blobs under <DataDir>/kv.
func Open(ctx context.Context, cfg types.Config) (*Backend, error) {
	switch cfg.KV.Driver {
	case "", types.KVDriverFile:
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		store, err := NewFileStore(filepath.Join(dataDir, DirName))
		if err != nil {
			return nil, err
		}
		return NewBackend(store), nil
	case types.KVDriverRedis:
		store, err := DialRedis(ctx, cfg.KV)
		if err != nil {
			return nil, err
		}
		return NewBackend(store), nil
	default:
		return nil, types.ErrKVDriverUnknown
	}
}

// Name returns types.BackendKV.
func (b *Backend) Name() string { return types.BackendKV }

// Activities returns the activity store.
func (b *Backend) Activities() types.ActivityStore { return activityStore{b} }

// Categories returns the category store.
func (b *Backend) Categories() types.CategoryStore { return categoryStore{b} }

// Settings returns the settings store.
func (b *Backend) Settings() types.SettingsStore { return settingsStore{b} }

// Close closes the store. Close is idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.store.Close()
}

// Replace encodes the whole snapshot first and then commits every blob in a
// single Store.Commit.
func (b *Backend) Replace(ctx context.Context, snap types.Snapshot) error {
	activities := snap.Activities
	if activities == nil {
		activities = []types.Activity{}
	}
	names := make([]string, 0, len(snap.Categories))
	colors := make(map[string]string, len(snap.Categories))
	for _, c := range snap.Categories {
		c, err := c.Normalized()
		if err != nil {
			return err
		}
		if _, dup := colors[c.Name]; !dup {
			names = append(names, c.Name)
		}
		colors[c.Name] = c.Color
	}
	settings := snap.Settings
	if settings == nil {
		settings = map[string]json.RawMessage{}
	}

	sets := make(map[string][]byte, 4)
	for key, v := range map[string]any{
		KeyActivities:     activities,
		KeyCategories:     names,
		KeyCategoryColors: colors,
		KeySettings:       settings,
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		sets[key] = data
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return types.ErrBackendClosed
	}
	if err := b.store.Commit(ctx, sets, nil); err != nil {
		return fmt.Errorf("replacing data set: %w", err)
	}
	return nil
}

// readJSON decodes the blob under key into v. A missing key leaves v as is.
// The caller must hold b.mu.
func (b *Backend) readJSON(ctx context.Context, key string, v any) error {
	if b.closed {
		return types.ErrBackendClosed
	}
	data, ok, err := b.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// writeJSON encodes v and stores it under key. The caller must hold b.mu.
func (b *Backend) writeJSON(ctx context.Context, key string, v any) error {
	if b.closed {
		return types.ErrBackendClosed
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return b.store.Set(ctx, key, data)
}

func (b *Backend) loadActivities(ctx context.Context) ([]types.Activity, error) {
	var activities []types.Activity
	if err := b.readJSON(ctx, KeyActivities, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// sortActivities orders by date, time, then ID so output is stable across
// backends.
func sortActivities(activities []types.Activity) {
	sort.Slice(activities, func(i, j int) bool {
		a, b := activities[i], activities[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.ID < b.ID
	})
}

type activityStore struct{ b *Backend }

func (s activityStore) GetAll(ctx context.Context) ([]types.Activity, error) {
	return s.filter(ctx, func(types.Activity) bool { return true })
}

func (s activityStore) GetByDate(ctx context.Context, date string) ([]types.Activity, error) {
	return s.filter(ctx, func(a types.Activity) bool { return a.Date == date })
}

func (s activityStore) GetByDateRange(ctx context.Context, start, end string) ([]types.Activity, error) {
	return s.filter(ctx, func(a types.Activity) bool { return a.Date >= start && a.Date <= end })
}

func (s activityStore) filter(ctx context.Context, keep func(types.Activity) bool) ([]types.Activity, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	all, err := s.b.loadActivities(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]types.Activity, 0, len(all))
	for _, a := range all {
		if keep(a) {
			result = append(result, a)
		}
	}
	sortActivities(result)
	return result, nil
}

func (s activityStore) Save(ctx context.Context, a types.Activity) (types.Activity, error) {
	if a.ID == "" {
		return types.Activity{}, types.ErrInvalidID
	}
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	all, err := s.b.loadActivities(ctx)
	if err != nil {
		return types.Activity{}, err
	}
	replaced := false
	for i := range all {
		if all[i].ID == a.ID {
			all[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, a)
	}
	if err := s.b.writeJSON(ctx, KeyActivities, all); err != nil {
		return types.Activity{}, fmt.Errorf("saving activity %s: %w", a.ID, err)
	}
	return a, nil
}

func (s activityStore) Delete(ctx context.Context, id string) (bool, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	all, err := s.b.loadActivities(ctx)
	if err != nil {
		return false, err
	}
	kept := make([]types.Activity, 0, len(all))
	for _, a := range all {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(all) {
		return true, nil
	}
	if err := s.b.writeJSON(ctx, KeyActivities, kept); err != nil {
		return false, fmt.Errorf("deleting activity %s: %w", id, err)
	}
	return true, nil
}

type categoryStore struct{ b *Backend }

func (s categoryStore) load(ctx context.Context) ([]string, map[string]string, error) {
	var names []string
	if err := s.b.readJSON(ctx, KeyCategories, &names); err != nil {
		return nil, nil, err
	}
	var colors map[string]string
	if err := s.b.readJSON(ctx, KeyCategoryColors, &colors); err != nil {
		return nil, nil, err
	}
	if colors == nil {
		colors = map[string]string{}
	}
	return names, colors, nil
}

func (s categoryStore) GetAll(ctx context.Context) ([]string, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	names, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s categoryStore) List(ctx context.Context) ([]types.Category, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	names, colors, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]types.Category, 0, len(names))
	for _, name := range names {
		color := colors[name]
		if color == "" {
			color = types.DefaultCategoryColor
		}
		result = append(result, types.Category{Name: name, Color: color})
	}
	return result, nil
}

func (s categoryStore) Save(ctx context.Context, c types.Category) (types.Category, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	names, colors, err := s.load(ctx)
	if err != nil {
		return types.Category{}, err
	}
	c.Name = types.NormalizeCategoryName(c.Name)
	if c.Color == "" {
		c.Color = colors[c.Name]
	}
	c, err = c.Normalized()
	if err != nil {
		return types.Category{}, err
	}

	known := false
	for _, n := range names {
		if n == c.Name {
			known = true
			break
		}
	}
	if !known {
		names = append(names, c.Name)
		if err := s.b.writeJSON(ctx, KeyCategories, names); err != nil {
			return types.Category{}, fmt.Errorf("saving category %s: %w", c.Name, err)
		}
	}
	if colors[c.Name] != c.Color {
		colors[c.Name] = c.Color
		if err := s.b.writeJSON(ctx, KeyCategoryColors, colors); err != nil {
			return types.Category{}, fmt.Errorf("saving category color %s: %w", c.Name, err)
		}
	}
	return c, nil
}

type settingsStore struct{ b *Backend }

func (s settingsStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	var settings map[string]json.RawMessage
	if err := s.b.readJSON(ctx, KeySettings, &settings); err != nil {
		return nil, false, err
	}
	v, ok := settings[key]
	return v, ok, nil
}

func (s settingsStore) Set(ctx context.Context, key string, value any) (json.RawMessage, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding setting %s: %w", key, err)
	}

	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	var settings map[string]json.RawMessage
	if err := s.b.readJSON(ctx, KeySettings, &settings); err != nil {
		return nil, err
	}
	if settings == nil {
		settings = map[string]json.RawMessage{}
	}
	settings[key] = raw
	if err := s.b.writeJSON(ctx, KeySettings, settings); err != nil {
		return nil, fmt.Errorf("saving setting %s: %w", key, err)
	}
	return raw, nil
}
