package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/daybook/internal/storetest"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

func TestFileBackendContract(t *testing.T) {
	storetest.RunBackendContract(t, func(t *testing.T) types.Backend {
		b, err := Open(context.Background(), types.Config{Backend: types.BackendKV, DataDir: t.TempDir()})
		require.NoError(t, err)
		return b
	})
}

func TestRedisBackendContract(t *testing.T) {
	storetest.RunBackendContract(t, func(t *testing.T) types.Backend {
		mr := miniredis.RunT(t)
		return NewBackend(NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), DefaultRedisPrefix))
	})
}

func TestOpenFileDriverLayout(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	b, err := Open(ctx, types.Config{Backend: types.BackendKV, DataDir: dataDir})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, types.BackendKV, b.Name())
	_, err = b.Activities().Save(ctx, types.Activity{ID: "1", Date: "2024-03-01", Time: "09:00", Duration: 30, Name: "Run", Category: "health"})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dataDir, DirName, KeyActivities+".json"))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), types.Config{Backend: types.BackendKV, KV: types.KVConfig{Driver: "etcd"}})
	assert.ErrorIs(t, err, types.ErrKVDriverUnknown)
}

func TestBackendReadsLegacyBlobs(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	// Blobs as the browser build wrote them: no colors, no settings.
	require.NoError(t, s.Set(ctx, KeyActivities, []byte(`[{"id":"1","date":"2024-03-01","time":"09:00","duration":60,"name":"Run","category":"exercise"}]`)))
	require.NoError(t, s.Set(ctx, KeyCategories, []byte(`["exercise"]`)))
	require.NoError(t, s.Set(ctx, KeyCategoryColors, []byte(`null`)))

	b := NewBackend(s)
	defer b.Close()

	all, err := b.Activities().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Run", all[0].Name)

	list, err := b.Categories().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Category{{Name: "exercise", Color: types.DefaultCategoryColor}}, list)

	saved, err := b.Categories().Save(ctx, types.Category{Name: "exercise", Color: "#123456"})
	require.NoError(t, err)
	assert.Equal(t, "#123456", saved.Color)

	_, err = b.Settings().Set(ctx, types.SettingAutoSave, true)
	require.NoError(t, err)
}

func TestBackendOrdersActivities(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	b := NewBackend(s)
	defer b.Close()

	for _, a := range []types.Activity{
		{ID: "c", Date: "2024-03-02", Time: "08:00", Duration: 5, Name: "c"},
		{ID: "b", Date: "2024-03-01", Time: "10:00", Duration: 5, Name: "b"},
		{ID: "a", Date: "2024-03-01", Time: "10:00", Duration: 5, Name: "a"},
		{ID: "d", Date: "2024-03-01", Time: "07:30", Duration: 5, Name: "d"},
	} {
		_, err := b.Activities().Save(ctx, a)
		require.NoError(t, err)
	}

	all, err := b.Activities().GetAll(ctx)
	require.NoError(t, err)
	var ids []string
	for _, a := range all {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids)
}
