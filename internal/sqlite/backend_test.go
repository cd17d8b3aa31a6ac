package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mesh-intelligence/daybook/internal/storetest"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

func TestBackendContract(t *testing.T) {
	storetest.RunBackendContract(t, func(t *testing.T) types.Backend {
		b, err := Open(context.Background(), types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		return b
	})
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	config := types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}

	if err := b.Attach(context.Background(), config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	dbPath := filepath.Join(tmpDir, DBFileName)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("%s not created", DBFileName)
	}
	if b.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", b.Path(), dbPath)
	}

	if err := b.Attach(context.Background(), config); err != types.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestBackend_Detach(t *testing.T) {
	b, err := Open(context.Background(), types.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Errorf("second Detach should not error, got %v", err)
	}
	if b.Path() != "" {
		t.Errorf("Path() after Detach = %q, want empty", b.Path())
	}

	if _, _, err := b.Settings().Get(context.Background(), types.SettingAutoSave); !errors.Is(err, types.ErrBackendClosed) {
		t.Errorf("expected ErrBackendClosed, got %v", err)
	}
}

func TestBackend_DataSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	config := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}

	b, err := Open(ctx, config)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	want := types.Activity{ID: "a1", Date: "2024-03-01", Time: "09:00", Duration: 60, Name: "Run", Category: "health"}
	if _, err := b.Activities().Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := b.Settings().Set(ctx, types.SettingMigrated, true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	b.Close()

	b, err = Open(ctx, config)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer b.Close()

	got, err := b.Activities().GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 1 || got[0] != want {
		t.Errorf("GetAll after reopen = %+v, want [%+v]", got, want)
	}
	migrated, err := types.GetBool(ctx, b.Settings(), types.SettingMigrated)
	if err != nil || !migrated {
		t.Errorf("migrated = %v, %v; want true, nil", migrated, err)
	}
}

func TestBackend_SchemaVersion(t *testing.T) {
	b, err := Open(context.Background(), types.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer b.Close()

	var version int
	if err := b.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("reading user_version: %v", err)
	}
	if version != schemaVersion {
		t.Errorf("user_version = %d, want %d", version, schemaVersion)
	}
}

func TestBackend_RejectsNewerSchema(t *testing.T) {
	ctx := context.Background()
	config := types.Config{DataDir: t.TempDir()}

	b, err := Open(ctx, config)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := b.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bumping user_version: %v", err)
	}
	b.Close()

	if _, err := Open(ctx, config); err == nil {
		t.Fatal("expected error opening newer schema")
	}
}

func TestBackend_AttachFailsOnUnusableDataDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	if _, err := Open(context.Background(), types.Config{DataDir: file}); err == nil {
		t.Fatal("expected error when data dir is a file")
	}
}

func TestBackend_ReplaceRollsBackOnBadRecord(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, types.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer b.Close()

	keep := types.Activity{ID: "keep", Date: "2024-03-01", Time: "09:00", Duration: 10, Name: "Keep", Category: "work"}
	if _, err := b.Activities().Save(ctx, keep); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	err = b.Replace(ctx, types.Snapshot{Activities: []types.Activity{
		{ID: "new", Date: "2024-03-02", Time: "10:00", Duration: 5, Name: "New"},
		{ID: "", Date: "2024-03-02", Time: "11:00", Duration: 5, Name: "Broken"},
	}})
	if !errors.Is(err, types.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}

	got, err := b.Activities().GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "keep" {
		t.Errorf("after failed replace got %+v, want only %q", got, "keep")
	}
}
