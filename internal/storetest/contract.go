// Package storetest holds the behavior every types.Backend must share. Each
// backend package runs RunBackendContract from its own tests.
package storetest

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// OpenFunc returns a fresh, empty backend. The contract closes it.
type OpenFunc func(t *testing.T) types.Backend

// Activity builds a valid activity for tests.
func Activity(id, date, clock string, duration int, name, category string) types.Activity {
	return types.Activity{ID: id, Date: date, Time: clock, Duration: duration, Name: name, Category: category}
}

// SortByID returns activities sorted by ID, for order-independent comparison.
func SortByID(activities []types.Activity) []types.Activity {
	out := append([]types.Activity(nil), activities...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RunBackendContract runs the shared backend behavior against open.
func RunBackendContract(t *testing.T, open OpenFunc) {
	t.Run("Scenario", func(t *testing.T) { testScenario(t, open(t)) })
	t.Run("UpsertIdempotence", func(t *testing.T) { testUpsert(t, open(t)) })
	t.Run("SaveRejectsEmptyID", func(t *testing.T) { testEmptyID(t, open(t)) })
	t.Run("DateRange", func(t *testing.T) { testDateRange(t, open(t)) })
	t.Run("Deletion", func(t *testing.T) { testDeletion(t, open(t)) })
	t.Run("Categories", func(t *testing.T) { testCategories(t, open(t)) })
	t.Run("Settings", func(t *testing.T) { testSettings(t, open(t)) })
	t.Run("Replace", func(t *testing.T) { testReplace(t, open(t)) })
	t.Run("Closed", func(t *testing.T) { testClosed(t, open(t)) })
}

func testScenario(t *testing.T, b types.Backend) {
	defer b.Close()
	ctx := context.Background()
	store := b.Activities()

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	run := Activity("1", "2024-03-01", "09:00", 60, "Run", "exercise")
	saved, err := store.Save(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, run, saved)

	got, err := store.GetByDate(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []types.Activity{run}, got)

	ok, err := store.Delete(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)

	all, err = store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testUpsert(t *testing.T, b types.Backend) {
	defer b.Close()
	ctx := context.Background()
	store := b.Activities()

	var last types.Activity
	for i := 1; i <= 5; i++ {
		last = Activity("same", "2024-03-01", "09:00", 10*i, "Run", "exercise")
		_, err := store.Save(ctx, last)
		require.NoError(t, err)
	}
	_, err := store.Save(ctx, Activity("other", "2024-03-02", "10:00", 5, "Walk", "health"))
	require.NoError(t, err)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	matches := 0
	for _, a := range all {
		if a.ID == "same" {
			matches++
			assert.Equal(t, last, a)
		}
	}
	assert.Equal(t, 1, matches)

	moved := last
	moved.Date = "2024-04-01"
	_, err = store.Save(ctx, moved)
	require.NoError(t, err)

	old, err := store.GetByDate(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Empty(t, old, "full replace moves the record to its new date")
}

func testEmptyID(t *testing.T, b types.Backend) {
	defer b.Close()
	_, err := b.Activities().Save(context.Background(), Activity("", "2024-03-01", "09:00", 5, "x", "work"))
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func testDateRange(t *testing.T, b types.Backend) {
	defer b.Close()
	ctx := context.Background()
	store := b.Activities()

	dates := []string{"2023-12-31", "2024-01-01", "2024-01-15", "2024-01-31", "2024-02-01", "2024-10-05"}
	for i, d := range dates {
		_, err := store.Save(ctx, Activity(string(rune('a'+i)), d, "08:00", 15, "x", "work"))
		require.NoError(t, err)
	}

	ranges := [][2]string{
		{"2024-01-01", "2024-01-31"},
		{"2023-01-01", "2025-01-01"},
		{"2024-01-15", "2024-01-15"},
		{"2024-02-02", "2024-09-30"},
		{"2024-03-01", "2024-02-01"},
	}
	for _, r := range ranges {
		got, err := store.GetByDateRange(ctx, r[0], r[1])
		require.NoError(t, err)

		var want []string
		for _, d := range dates {
			if r[0] <= d && d <= r[1] {
				want = append(want, d)
			}
		}
		var gotDates []string
		for _, a := range got {
			gotDates = append(gotDates, a.Date)
		}
		sort.Strings(gotDates)
		assert.Equal(t, want, gotDates, "range %s..%s", r[0], r[1])

		for _, d := range want {
			day, err := store.GetByDate(ctx, d)
			require.NoError(t, err)
			for _, a := range day {
				assert.Contains(t, got, a, "range must include every record of %s", d)
			}
		}
	}
}

func testDeletion(t *testing.T, b types.Backend) {
	defer b.Close()
	ctx := context.Background()
	store := b.Activities()

	a1 := Activity("1", "2024-03-01", "09:00", 30, "Work", "work")
	a2 := Activity("2", "2024-03-01", "10:00", 45, "More work", "work")
	for _, a := range []types.Activity{a1, a2} {
		_, err := store.Save(ctx, a)
		require.NoError(t, err)
	}

	ok, err := store.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.True(t, ok)
	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Activity{a1, a2}, SortByID(all))

	ok, err = store.Delete(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)
	all, err = store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Activity{a2}, all)
}

func testCategories(t *testing.T, b types.Backend) {
	defer b.Close()
	ctx := context.Background()
	store := b.Categories()

	names, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	saved, err := store.Save(ctx, types.Category{Name: " Reading "})
	require.NoError(t, err)
	assert.Equal(t, "reading", saved.Name)
	assert.NotEmpty(t, saved.Color)

	again, err := store.Save(ctx, types.Category{Name: "reading"})
	require.NoError(t, err)
	assert.Equal(t, saved.Color, again.Color, "color is assigned once")

	_, err = store.Save(ctx, types.Category{Name: "chess", Color: "#101010"})
	require.NoError(t, err)

	names, err = store.GetAll(ctx)
	require.NoError(t, err)
	sort.Strings(names)
	assert.Equal(t, []string{"chess", "reading"}, names)

	list, err := store.List(ctx)
	require.NoError(t, err)
	colors := map[string]string{}
	for _, c := range list {
		colors[c.Name] = c.Color
	}
	assert.Equal(t, map[string]string{"chess": "#101010", "reading": saved.Color}, colors)

	_, err = store.Save(ctx, types.Category{Name: "  "})
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func testSettings(t *testing.T, b types.Backend) {
	defer b.Close()
	ctx := context.Background()
	s := b.Settings()

	_, ok, err := s.Get(ctx, types.SettingAutoSave)
	require.NoError(t, err)
	assert.False(t, ok)

	raw, err := s.Set(ctx, types.SettingAutoSave, true)
	require.NoError(t, err)
	assert.JSONEq(t, "true", string(raw))

	_, err = s.Set(ctx, types.SettingLastSavedTime, "2024-03-01T09:00:00Z")
	require.NoError(t, err)

	v, err := types.GetBool(ctx, s, types.SettingAutoSave)
	require.NoError(t, err)
	assert.True(t, v)

	_, err = s.Set(ctx, types.SettingAutoSave, false)
	require.NoError(t, err)
	v, err = types.GetBool(ctx, s, types.SettingAutoSave)
	require.NoError(t, err)
	assert.False(t, v)

	ts, err := types.GetString(ctx, s, types.SettingLastSavedTime)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T09:00:00Z", ts)
}

func testReplace(t *testing.T, b types.Backend) {
	defer b.Close()
	ctx := context.Background()

	_, err := b.Activities().Save(ctx, Activity("old", "2024-01-01", "07:00", 20, "Old", "work"))
	require.NoError(t, err)
	_, err = b.Categories().Save(ctx, types.Category{Name: "stale"})
	require.NoError(t, err)
	_, err = b.Settings().Set(ctx, types.SettingLastSavedTime, "2024-01-01T00:00:00Z")
	require.NoError(t, err)

	fresh := []types.Activity{
		Activity("n1", "2024-05-01", "09:00", 30, "New", "reading"),
		Activity("n2", "2024-05-02", "10:00", 40, "Newer", "work"),
	}
	err = b.Replace(ctx, types.Snapshot{
		Activities: fresh,
		Categories: []types.Category{{Name: "reading", Color: "#abcdef"}},
		Settings:   map[string]json.RawMessage{types.SettingAutoSave: json.RawMessage("true")},
	})
	require.NoError(t, err)

	all, err := b.Activities().GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, fresh, SortByID(all))

	list, err := b.Categories().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Category{{Name: "reading", Color: "#abcdef"}}, list)

	_, ok, err := b.Settings().Get(ctx, types.SettingLastSavedTime)
	require.NoError(t, err)
	assert.False(t, ok, "settings are cleared by replace")
	auto, err := types.GetBool(ctx, b.Settings(), types.SettingAutoSave)
	require.NoError(t, err)
	assert.True(t, auto)

	require.NoError(t, b.Replace(ctx, types.Snapshot{}))
	all, err = b.Activities().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	names, err := b.Categories().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func testClosed(t *testing.T, b types.Backend) {
	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "Close is idempotent")

	_, err := b.Activities().GetAll(context.Background())
	assert.ErrorIs(t, err, types.ErrBackendClosed)
	_, err = b.Activities().Save(context.Background(), Activity("1", "2024-03-01", "09:00", 5, "x", "work"))
	assert.ErrorIs(t, err, types.ErrBackendClosed)
}
