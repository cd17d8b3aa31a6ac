package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/daybook/internal/paths"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// harness runs the root command in-process against temporary directories.
type harness struct {
	t         *testing.T
	configDir string
	dataDir   string
	now       time.Time
	stdin     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv(paths.EnvExportDir, "")
	t.Setenv(envDebug, "")
	root := t.TempDir()
	return &harness{
		t:         t,
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
		now:       time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
}

// result holds the output of one CLI invocation.
type result struct {
	stdout string
	stderr string
	code   int
}

func (h *harness) run(args ...string) result {
	h.t.Helper()
	a := &app{now: func() time.Time { return h.now }}
	root := newRootCmd(a)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(h.stdin))
	root.SetArgs(append([]string{"--config-dir", h.configDir, "--data-dir", h.dataDir}, args...))

	err := root.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), code: ExitCode(err)}
}

// mustRun runs args and fails the test on a non-zero exit code.
func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	res := h.run(args...)
	require.Equal(h.t, exitSuccess, res.code, "daybook %v\nstdout: %s\nstderr: %s", args, res.stdout, res.stderr)
	return res.stdout
}

// listJSON returns the activities "list" reports for args.
func (h *harness) listJSON(args ...string) []types.Activity {
	h.t.Helper()
	out := h.mustRun(append([]string{"list", "--json"}, args...)...)
	var doc struct {
		Result []types.Activity `json:"result"`
	}
	require.NoError(h.t, json.Unmarshal([]byte(out), &doc), out)
	return doc.Result
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("version")
	assert.Contains(t, out, "daybook v")
	assert.Contains(t, out, "github.com/mesh-intelligence/daybook")
}

func TestInit(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("init")
	assert.Contains(t, out, "Daybook initialized (sqlite backend)")
	assert.FileExists(t, filepath.Join(h.dataDir, "daybook.db"))

	configFile := filepath.Join(h.configDir, "config.yaml")
	data, err := os.ReadFile(configFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	assert.Contains(t, string(data), "type: category")

	t.Run("keeps an existing config.yaml", func(t *testing.T) {
		require.NoError(t, os.WriteFile(configFile, []byte("backend: kv\n"), 0o644))
		out := h.mustRun("init")
		assert.Contains(t, out, "Daybook initialized (kv backend)")

		data, err := os.ReadFile(configFile)
		require.NoError(t, err)
		assert.Equal(t, "backend: kv\n", string(data))
	})
}

func TestAddListDelete(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("add", "--name", "Standup", "--time", "09:00", "--duration", "30", "--category", "Work")
	assert.Contains(t, out, "Friday, March 1, 2024")
	assert.Contains(t, out, "9:00 AM - 9:30 AM")
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "Added activity ")
	assert.NotContains(t, out, "March 2024\n", "calendar is not shown after add")

	h.mustRun("add", "--date", "2024-02-28", "--time", "18:00", "--duration", "60", "--name", "Run", "--category", "health")

	today := h.listJSON()
	require.Len(t, today, 1)
	assert.Equal(t, "Standup", today[0].Name)
	assert.Equal(t, "work", today[0].Category)
	assert.Equal(t, "2024-03-01", today[0].Date)

	all := h.listJSON("--all")
	require.Len(t, all, 2)
	assert.Equal(t, "Run", all[0].Name, "sorted by date")

	ranged := h.listJSON("--from", "2024-02-01", "--to", "2024-02-29")
	require.Len(t, ranged, 1)
	assert.Equal(t, "Run", ranged[0].Name)

	text := h.mustRun("list", "--date", "2024-02-28")
	assert.Contains(t, text, "DATE")
	assert.Contains(t, text, "6:00 PM")
	assert.Contains(t, text, "1h 0m")

	out = h.mustRun("delete", today[0].ID)
	assert.Contains(t, out, "Deleted activity "+today[0].ID)
	assert.Contains(t, h.mustRun("list"), "No activities found")
	assert.Empty(t, h.listJSON())
}

func TestAdd_Invalid(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"negative duration", []string{"--name", "x", "--duration", "-5"}, types.ErrInvalidDuration.Error()},
		{"blank name", []string{"--name", "  ", "--duration", "5"}, types.ErrInvalidName.Error()},
		{"bad date", []string{"--name", "x", "--duration", "5", "--date", "01/03/2024"}, types.ErrInvalidDate.Error()},
		{"bad time", []string{"--name", "x", "--duration", "5", "--time", "9am"}, types.ErrInvalidTime.Error()},
		{"unknown category", []string{"--name", "x", "--duration", "5", "--category", "chores"}, "unknown category"},
		{"missing name", []string{"--duration", "5"}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.run(append([]string{"add"}, tt.args...)...)
			assert.Equal(t, exitUserError, res.code)
			assert.Contains(t, res.stderr, tt.want)
		})
	}
	assert.Empty(t, h.listJSON("--all"))
}

func TestCategories(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("category", "add", "  Reading ")
	assert.Contains(t, out, "Added category reading (hsl(")

	res := h.run("category", "add", "reading")
	assert.Equal(t, exitUserError, res.code)
	assert.Contains(t, res.stderr, types.ErrCategoryExists.Error())

	res = h.run("category", "add", "Work")
	assert.Equal(t, exitUserError, res.code)

	out = h.mustRun("category", "list")
	assert.Contains(t, out, "Work")
	assert.Contains(t, out, "built-in")
	assert.Contains(t, out, "Reading")
	assert.Contains(t, out, "custom")

	h.mustRun("add", "--name", "Novel", "--duration", "20", "--category", "reading")
	acts := h.listJSON()
	require.Len(t, acts, 1)
	assert.Equal(t, "reading", acts[0].Category)
}

func TestViews(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "--name", "Standup", "--time", "09:00", "--duration", "30", "--category", "work")
	h.mustRun("add", "--name", "Lunch", "--time", "12:00", "--duration", "45", "--category", "meals")

	out := h.mustRun("summary")
	assert.Contains(t, out, "1 activity")
	assert.NotContains(t, out, "9:00 AM")

	out = h.mustRun("chart", "--type", "time", "--range", "all")
	assert.True(t, strings.HasPrefix(out, "Minutes, All Time\n"), out)
	assert.Contains(t, out, "Meals")

	out = h.mustRun("chart")
	assert.True(t, strings.HasPrefix(out, "Number of Activities, This Week\n"), out)

	out = h.mustRun("calendar", "--month", "2024-03")
	assert.True(t, strings.HasPrefix(out, "March 2024\n"), out)
	assert.Contains(t, out, " 1*")

	out = h.mustRun("show")
	for _, want := range []string{"Friday, March 1, 2024", "Summary", "Number of Activities", "March 2024"} {
		assert.Contains(t, out, want)
	}

	out = h.mustRun("show", "--json")
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	for _, key := range []string{"timeline", "summary", "chart", "calendar"} {
		assert.Contains(t, doc, key)
	}

	for _, args := range [][]string{
		{"chart", "--type", "pie"},
		{"chart", "--range", "year"},
		{"calendar", "--month", "2024-13"},
		{"summary", "--date", "yesterday"},
	} {
		res := h.run(args...)
		assert.Equal(t, exitUserError, res.code, "daybook %v", args)
	}
}

func TestChartDefaultsFromConfig(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.MkdirAll(h.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(h.configDir, "config.yaml"),
		[]byte("chart:\n  type: daily\n  range: month\n"), 0o644))

	out := h.mustRun("chart")
	assert.True(t, strings.HasPrefix(out, "Number of Activities, This Month\n"), out)
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)
	exportDir := filepath.Join(t.TempDir(), "exports")

	h.mustRun("add", "--name", "Standup", "--time", "09:00", "--duration", "30", "--category", "work")
	h.mustRun("category", "add", "reading")

	out := h.mustRun("export", "--dir", exportDir)
	file := filepath.Join(exportDir, "daily-activities-2024-03-01.json")
	assert.Contains(t, out, "Exported to "+file)
	require.FileExists(t, file)

	acts := h.listJSON()
	require.Len(t, acts, 1)
	h.mustRun("delete", acts[0].ID)
	h.mustRun("add", "--name", "Other", "--duration", "5")

	t.Run("declined", func(t *testing.T) {
		h.stdin = "n\n"
		defer func() { h.stdin = "" }()
		res := h.run("import", file)
		assert.Equal(t, exitSuccess, res.code)
		assert.Contains(t, res.stderr, "Import cancelled")
		require.Len(t, h.listJSON(), 1)
		assert.Equal(t, "Other", h.listJSON()[0].Name)
	})

	t.Run("confirmed", func(t *testing.T) {
		h.stdin = "yes\n"
		defer func() { h.stdin = "" }()
		out := h.mustRun("import", file)
		assert.Contains(t, out, "Imported 1 activities and 1 categories")

		acts := h.listJSON()
		require.Len(t, acts, 1)
		assert.Equal(t, "Standup", acts[0].Name)
	})

	t.Run("invalid file leaves data alone", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{"version":1}`), 0o644))

		res := h.run("import", "--yes", bad)
		assert.Equal(t, exitUserError, res.code)
		assert.Contains(t, res.stderr, "invalid data file")
		assert.Len(t, h.listJSON(), 1)
	})

	t.Run("malformed optional fields warn", func(t *testing.T) {
		lossy := filepath.Join(t.TempDir(), "lossy.json")
		require.NoError(t, os.WriteFile(lossy, []byte(`{"activities": [], "customCategories": "reading"}`), 0o644))

		res := h.run("import", "--yes", lossy)
		assert.Equal(t, exitSuccess, res.code)
		assert.Contains(t, res.stdout, "Imported 0 activities and 0 categories")
		assert.Contains(t, res.stderr, "Warning: ignoring customCategories: not a list")
		assert.Empty(t, h.listJSON())
	})

	t.Run("missing file", func(t *testing.T) {
		res := h.run("import", "--yes", filepath.Join(t.TempDir(), "nope.json"))
		assert.Equal(t, exitUserError, res.code)
	})
}

func TestAutoSave(t *testing.T) {
	h := newHarness(t)
	exportFile := filepath.Join(h.dataDir, "exports", "daily-activities-2024-03-01.json")

	out := h.mustRun("autosave", "status")
	assert.Contains(t, out, "Auto save: Off")
	assert.Contains(t, out, "Last saved: Not saved yet")

	h.mustRun("add", "--name", "Standup", "--duration", "30")
	assert.NoFileExists(t, exportFile)

	out = h.mustRun("autosave", "on")
	assert.Contains(t, out, "Auto save: On")
	require.FileExists(t, exportFile)

	h.now = h.now.Add(5 * time.Minute)
	out = h.mustRun("autosave", "status")
	assert.Contains(t, out, "Auto save: On")
	assert.Contains(t, out, "Last saved: 5 minutes ago")

	require.NoError(t, os.Remove(exportFile))
	h.mustRun("add", "--name", "Coffee", "--duration", "10", "--category", "meals")
	require.FileExists(t, exportFile)
	data, err := os.ReadFile(exportFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Coffee")

	h.mustRun("autosave", "off")
	require.NoError(t, os.Remove(exportFile))
	h.mustRun("add", "--name", "Walk", "--duration", "10", "--category", "health")
	assert.NoFileExists(t, exportFile)

	res := h.run("autosave", "maybe")
	assert.Equal(t, exitUserError, res.code)
}

func TestKVBackend(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("--backend", "kv", "init")
	assert.Contains(t, out, "kv backend")
	assert.NoFileExists(t, filepath.Join(h.dataDir, "daybook.db"))

	h.mustRun("--backend", "kv", "add", "--name", "Standup", "--duration", "30", "--category", "work")
	acts := h.listJSON("--backend", "kv")
	require.Len(t, acts, 1)
	assert.FileExists(t, filepath.Join(h.dataDir, "kv", "dailyActivities.json"))

	t.Run("migrated into sqlite on next open", func(t *testing.T) {
		acts := h.listJSON()
		require.Len(t, acts, 1)
		assert.Equal(t, "Standup", acts[0].Name)
		assert.FileExists(t, filepath.Join(h.dataDir, "daybook.db"))
	})
}

func TestInvalidBackend(t *testing.T) {
	h := newHarness(t)
	res := h.run("--backend", "mongo", "list")
	assert.Equal(t, exitUserError, res.code)
	assert.Contains(t, res.stderr, types.ErrBackendUnknown.Error())
}

func TestMetricsFlag(t *testing.T) {
	h := newHarness(t)
	res := h.run("--metrics", "list")
	require.Equal(t, exitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stderr, `daybook_store_backend_selected_total{backend="sqlite"} 1`)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, ExitCode(nil))
	assert.Equal(t, exitUserError, ExitCode(errors.New("bad flag")))
	assert.Equal(t, exitSysError, ExitCode(sysError(errors.New("disk full"))))
	assert.Equal(t, exitUserError, ExitCode(fail(types.ErrInvalidName)))
	assert.Equal(t, exitSysError, ExitCode(fail(errors.New("database is locked"))))
}
