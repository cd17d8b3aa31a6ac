package codec

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"

	"github.com/mesh-intelligence/daybook/internal/fsutil"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Export reads the whole data set from b.
func Export(ctx context.Context, b types.Backend, now time.Time) (*Envelope, error) {
	activities, err := b.Activities().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting activities: %w", err)
	}
	categories, err := b.Categories().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting categories: %w", err)
	}
	autoSave, err := types.GetBool(ctx, b.Settings(), types.SettingAutoSave)
	if err != nil {
		return nil, fmt.Errorf("exporting settings: %w", err)
	}

	env := &Envelope{
		Activities:       activities,
		CustomCategories: make([]string, 0, len(categories)),
		CategoryColors:   make(map[string]string, len(categories)),
		Settings:         &Settings{AutoSave: &autoSave},
		Version:          DataVersion,
		ExportDate:       now.UTC().Format(time.RFC3339),
	}
	for _, c := range categories {
		env.CustomCategories = append(env.CustomCategories, c.Name)
		env.CategoryColors[c.Name] = c.Color
	}
	return env, nil
}

// ImportResult counts what an import wrote and carries the envelope's
// decode warnings.
type ImportResult struct {
	Activities int      `json:"activities"`
	Categories int      `json:"categories"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Import replaces the data set in b with env. The new data set is built and
// checked in memory first; nothing is cleared when env is invalid. The
// migration sentinel survives the import. lastSavedTime is taken from the
// envelope timestamp, or now when it has none.
func Import(ctx context.Context, b types.Backend, env *Envelope, now time.Time) (ImportResult, error) {
	if env == nil || env.Activities == nil {
		return ImportResult{}, ErrInvalidEnvelope
	}

	snap := types.Snapshot{Settings: map[string]json.RawMessage{}}
	byID := make(map[string]int, len(env.Activities))
	for i, a := range env.Activities {
		if a.ID == "" {
			return ImportResult{}, fmt.Errorf("%w: activity %d has no id", ErrInvalidEnvelope, i)
		}
		if j, dup := byID[a.ID]; dup {
			snap.Activities[j] = a
			continue
		}
		byID[a.ID] = len(snap.Activities)
		snap.Activities = append(snap.Activities, a)
	}

	seen := make(map[string]bool, len(env.CustomCategories))
	for _, name := range env.CustomCategories {
		c, err := types.Category{Name: name}.Normalized()
		if err != nil || seen[c.Name] {
			continue
		}
		if color := env.CategoryColors[name]; color != "" {
			c.Color = color
		} else if color := env.CategoryColors[c.Name]; color != "" {
			c.Color = color
		}
		seen[c.Name] = true
		snap.Categories = append(snap.Categories, c)
	}

	migrated, ok, err := b.Settings().Get(ctx, types.SettingMigrated)
	if err != nil {
		return ImportResult{}, fmt.Errorf("reading migration state: %w", err)
	}
	if ok {
		snap.Settings[types.SettingMigrated] = migrated
	}
	if env.Settings != nil && env.Settings.AutoSave != nil {
		snap.Settings[types.SettingAutoSave] = rawJSON(*env.Settings.AutoSave)
	}
	snap.Settings[types.SettingLastSavedTime] = rawJSON(lastSaved(env, now))

	if err := b.Replace(ctx, snap); err != nil {
		return ImportResult{}, fmt.Errorf("importing data set: %w", err)
	}
	return ImportResult{
		Activities: len(snap.Activities),
		Categories: len(snap.Categories),
		Warnings:   env.Warnings,
	}, nil
}

func lastSaved(env *Envelope, now time.Time) string {
	if ts := env.Timestamp(); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return now.UTC().Format(time.RFC3339)
}

// FileName returns the export file name for today.
func FileName(today civil.Date) string {
	return fmt.Sprintf("daily-activities-%s.json", today)
}

// WriteFile writes env into dir under FileName(today) and returns the path.
// The file is replaced atomically.
func WriteFile(dir string, env *Envelope, today civil.Date) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding envelope: %w", err)
	}
	path := filepath.Join(dir, FileName(today))
	if err := fsutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ReadFile decodes the envelope stored at path.
func ReadFile(path string) (*Envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// FileExporter exports the data set into Dir and records lastSavedTime.
type FileExporter struct {
	Dir string
	Now func() time.Time
}

// Export writes the current data set to a file and returns its path.
func (x FileExporter) Export(ctx context.Context, b types.Backend) (string, error) {
	now := time.Now()
	if x.Now != nil {
		now = x.Now()
	}
	env, err := Export(ctx, b, now)
	if err != nil {
		return "", err
	}
	path, err := WriteFile(x.Dir, env, types.Today(now))
	if err != nil {
		return "", err
	}
	if _, err := b.Settings().Set(ctx, types.SettingLastSavedTime, now.UTC().Format(time.RFC3339)); err != nil {
		return path, fmt.Errorf("recording save time: %w", err)
	}
	return path, nil
}

// rawJSON encodes bools and strings, which cannot fail.
func rawJSON(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
