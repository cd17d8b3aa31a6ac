// Package cli implements the daybook command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/daybook/internal/observability"
	"github.com/mesh-intelligence/daybook/internal/paths"
	"github.com/mesh-intelligence/daybook/pkg/daybook"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// envDebug turns on debug logging when set to any value.
const envDebug = "DAYBOOK_DEBUG"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	jsonMode  bool
	metrics   bool
}

// app is the state shared by one invocation of the root command.
type app struct {
	flags     rootFlags
	now       func() time.Time
	configDir string
	conf      *viper.Viper
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewRootCmd creates the top-level "daybook" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{now: time.Now})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:     "daybook",
		Short:   "A daily activity log",
		Long:    "Daybook records what you did each day, summarizes it by category,\nand keeps the log in an embedded database with a file fallback.",
		Version: daybook.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/daybook)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/daybook)")
	root.PersistentFlags().StringVar(&a.flags.backend, "backend", "", "storage backend: sqlite or kv (default from config.yaml)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&a.flags.metrics, "metrics", false, "print metrics to stderr on exit")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newCategoryCmd(a),
		newSummaryCmd(a),
		newChartCmd(a),
		newCalendarCmd(a),
		newShowCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newAutoSaveCmd(a),
	)

	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return ExitCode(NewRootCmd().Execute())
}

// setup resolves the config directory, loads config.yaml and builds the
// logger and metrics for the invocation.
func (a *app) setup(cmd *cobra.Command) error {
	a.logger = newLogger(cmd.ErrOrStderr())
	if a.flags.metrics {
		a.metrics = observability.NewMetrics()
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = configDir

	conf, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	a.conf = conf
	return nil
}

func (a *app) teardown(cmd *cobra.Command) error {
	if a.metrics == nil {
		return nil
	}
	return a.metrics.WriteText(cmd.ErrOrStderr())
}

// newLogger logs warnings to w, or everything when DAYBOOK_DEBUG is set.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if os.Getenv(envDebug) != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// exitError carries an exit code other than exitUserError.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// sysError marks err as a failure of the system rather than of the input.
func sysError(err error) error {
	return &exitError{code: exitSysError, err: err}
}

// ExitCode maps an error returned by the root command to a process exit
// code. Errors not marked otherwise are user errors.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
