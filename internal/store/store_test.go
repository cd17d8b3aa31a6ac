package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/daybook/internal/kv"
	"github.com/mesh-intelligence/daybook/internal/observability"
	"github.com/mesh-intelligence/daybook/internal/sqlite"
	"github.com/mesh-intelligence/daybook/internal/storetest"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

func seedFallback(t *testing.T, cfg types.Config, activities ...types.Activity) {
	t.Helper()
	ctx := context.Background()
	cfg.Backend = types.BackendKV
	fb, err := kv.Open(ctx, cfg)
	require.NoError(t, err)
	defer fb.Close()
	for _, a := range activities {
		_, err := fb.Activities().Save(ctx, a)
		require.NoError(t, err)
	}
}

func TestOpenDefaultsToEmbedded(t *testing.T) {
	m := observability.NewMetrics()
	b, err := Open(context.Background(), types.Config{DataDir: t.TempDir()}, Options{Metrics: m})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, types.BackendSQLite, b.Name())
	count, err := testutil.GatherAndCount(m.Registry(), "daybook_store_backend_selected_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOpenKVConfigured(t *testing.T) {
	dataDir := t.TempDir()
	b, err := Open(context.Background(), types.Config{Backend: types.BackendKV, DataDir: dataDir}, Options{})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, types.BackendKV, b.Name())
	assert.NoFileExists(t, filepath.Join(dataDir, sqlite.DBFileName))
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), types.Config{Backend: "mongo"}, Options{})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestOpenFallsBackWhenEmbeddedUnavailable(t *testing.T) {
	dataDir := t.TempDir()
	junk := bytes.Repeat([]byte("this is not a database file "), 64)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, sqlite.DBFileName), junk, 0o644))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	b, err := Open(context.Background(), types.Config{DataDir: dataDir}, Options{Logger: logger})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, types.BackendKV, b.Name())
	assert.Contains(t, logs.String(), "embedded store unavailable")

	_, err = b.Activities().Save(context.Background(), storetest.Activity("1", "2024-03-01", "09:00", 60, "Run", "exercise"))
	require.NoError(t, err)
	all, err := b.Activities().GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOpenMigratesOnce(t *testing.T) {
	ctx := context.Background()
	cfg := types.Config{DataDir: t.TempDir()}
	m := observability.NewMetrics()

	seedFallback(t, cfg,
		storetest.Activity("1", "2024-03-01", "09:00", 60, "Run", "exercise"),
		storetest.Activity("2", "2024-03-02", "12:00", 30, "Lunch", "meals"),
	)
	fb, err := kv.Open(ctx, types.Config{Backend: types.BackendKV, DataDir: cfg.DataDir})
	require.NoError(t, err)
	_, err = fb.Categories().Save(ctx, types.Category{Name: "exercise", Color: "#112233"})
	require.NoError(t, err)
	require.NoError(t, fb.Close())

	b, err := Open(ctx, cfg, Options{Metrics: m})
	require.NoError(t, err)

	all, err := b.Activities().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	cats, err := b.Categories().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Category{{Name: "exercise", Color: "#112233"}}, cats)
	state, err := ReadMigrationState(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, MigrationDone, state)
	require.NoError(t, b.Close())

	seedFallback(t, cfg, storetest.Activity("3", "2024-03-03", "08:00", 15, "Late", "work"))

	b, err = Open(ctx, cfg, Options{Metrics: m})
	require.NoError(t, err)
	defer b.Close()

	all, err = b.Activities().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "migration runs at most once")
	expected := `
# HELP daybook_store_migration_runs_total Fallback-to-embedded migration runs grouped by result.
# TYPE daybook_store_migration_runs_total counter
daybook_store_migration_runs_total{result="ok"} 1
daybook_store_migration_runs_total{result="skipped"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "daybook_store_migration_runs_total"))
}

func TestOpenMigratesFromRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
		KV:      types.KVConfig{Driver: types.KVDriverRedis, Addr: mr.Addr()},
	}
	seedFallback(t, cfg, storetest.Activity("r1", "2024-03-01", "09:00", 60, "Run", "exercise"))

	b, err := Open(ctx, cfg, Options{})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, types.BackendSQLite, b.Name())
	all, err := b.Activities().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "r1", all[0].ID)
}

func TestOpenSwallowsMigrationFailure(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	var logs bytes.Buffer
	b, err := Open(ctx, types.Config{
		DataDir: t.TempDir(),
		KV:      types.KVConfig{Driver: types.KVDriverRedis, Addr: addr},
	}, Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, types.BackendSQLite, b.Name())
	assert.Contains(t, logs.String(), "will retry on next open")
	state, err := ReadMigrationState(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, MigrationNotStarted, state)
}

// flakyBackend fails category reads until failCategories is cleared.
type flakyBackend struct {
	types.Backend
	failCategories bool
}

func (f *flakyBackend) Categories() types.CategoryStore {
	return flakyCategories{CategoryStore: f.Backend.Categories(), fail: f.failCategories}
}

type flakyCategories struct {
	types.CategoryStore
	fail bool
}

func (c flakyCategories) List(ctx context.Context) ([]types.Category, error) {
	if c.fail {
		return nil, errors.New("disk on fire")
	}
	return c.CategoryStore.List(ctx)
}

func TestMigrateRetryDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	cfg := types.Config{DataDir: t.TempDir()}
	seedFallback(t, cfg,
		storetest.Activity("1", "2024-03-01", "09:00", 60, "Run", "exercise"),
		storetest.Activity("2", "2024-03-02", "12:00", 30, "Lunch", "meals"),
	)

	fb, err := kv.Open(ctx, types.Config{Backend: types.BackendKV, DataDir: cfg.DataDir})
	require.NoError(t, err)
	defer fb.Close()
	src := &flakyBackend{Backend: fb, failCategories: true}

	dst, err := sqlite.Open(ctx, cfg)
	require.NoError(t, err)
	defer dst.Close()

	state, err := Migrate(ctx, src, dst, Options{})
	require.Error(t, err)
	assert.Equal(t, MigrationNotStarted, state)
	state, err = ReadMigrationState(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, MigrationNotStarted, state, "sentinel stays unset after a failure")

	src.failCategories = false
	state, err = Migrate(ctx, src, dst, Options{})
	require.NoError(t, err)
	assert.Equal(t, MigrationDone, state)

	all, err := dst.Activities().GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Activity{
		storetest.Activity("1", "2024-03-01", "09:00", 60, "Run", "exercise"),
		storetest.Activity("2", "2024-03-02", "12:00", 30, "Lunch", "meals"),
	}, all)
}

func TestMigrationStateString(t *testing.T) {
	assert.Equal(t, "not_started", MigrationNotStarted.String())
	assert.Equal(t, "done", MigrationDone.String())
}
