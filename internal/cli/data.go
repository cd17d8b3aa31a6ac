package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/daybook/internal/codec"
	"github.com/mesh-intelligence/daybook/internal/views"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all activities, categories and settings to a JSON file",
		Long: `Export writes the whole data set to daily-activities-YYYY-MM-DD.json in the
export directory and records the save time.

The directory is --dir, else export_dir in config.yaml, else
DAYBOOK_EXPORT_DIR, else the exports folder in the data directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			exportDir, err := a.exportDir(dir)
			if err != nil {
				return sysError(fmt.Errorf("resolve export dir: %w", err))
			}
			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = s.finish(err) }()

			path, err := codec.FileExporter{Dir: exportDir, Now: a.now}.Export(cmd.Context(), s.backend)
			if err != nil {
				return sysError(err)
			}
			s.report(map[string]string{"path": path}, "Exported to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to write the file to")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with the contents of an exported file",
		Long: `Import reads a file written by export and replaces every activity, custom
category and setting with its contents. The file is checked before anything
is changed; an invalid file leaves the data as it was.

Without --yes, import asks for confirmation first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			env, err := codec.ReadFile(args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd, "This will replace all current data. Continue? [y/N] ") {
				fmt.Fprintln(cmd.ErrOrStderr(), "Import cancelled")
				return nil
			}

			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = s.finish(err) }()

			res, err := codec.Import(cmd.Context(), s.backend, env, a.now())
			if err != nil {
				return fail(err)
			}
			for _, w := range res.Warnings {
				a.logger.Warn("import dropped data", "file", args[0], "detail", w)
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			s.report(res, "Imported %d activities and %d categories\n", res.Activities, res.Categories)
			return fail(s.coord.NotifyMutated(cmd.Context()))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "replace data without asking")
	return cmd
}

// confirm asks prompt on stderr and reads a yes/no answer from stdin.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// autoSaveStatus is the result of "autosave status".
type autoSaveStatus struct {
	AutoSave      bool   `json:"autoSave"`
	LastSavedTime string `json:"lastSavedTime,omitempty"`
	LastSaved     string `json:"lastSaved"`
}

func newAutoSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "autosave on|off|status",
		Short: "Turn saving to file after every change on or off",
		Long: `With auto-save on, every change to the data set is followed by an export
to the export directory. Turning it on saves immediately.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off", "status"},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = s.finish(err) }()

			ctx := cmd.Context()
			switch args[0] {
			case "on", "off":
				on := args[0] == "on"
				if err := s.coord.SetAutoSave(ctx, on); err != nil {
					return fail(err)
				}
				s.report(map[string]bool{"autoSave": on}, "Auto save: %s\n", onOff(on))
				return nil
			}

			status, err := readAutoSave(s, a.now())
			if err != nil {
				return fail(err)
			}
			s.report(status, "Auto save: %s\nLast saved: %s\n", onOff(status.AutoSave), status.LastSaved)
			return nil
		},
	}
}

func readAutoSave(s *session, now time.Time) (autoSaveStatus, error) {
	ctx := s.cmd.Context()
	on, err := types.GetBool(ctx, s.backend.Settings(), types.SettingAutoSave)
	if err != nil {
		return autoSaveStatus{}, err
	}
	raw, err := types.GetString(ctx, s.backend.Settings(), types.SettingLastSavedTime)
	if err != nil {
		return autoSaveStatus{}, err
	}
	var saved time.Time
	if raw != "" {
		saved, _ = time.Parse(time.RFC3339, raw)
	}
	return autoSaveStatus{
		AutoSave:      on,
		LastSavedTime: raw,
		LastSaved:     views.FormatLastSaved(saved, now),
	}, nil
}

func onOff(on bool) string {
	if on {
		return "On"
	}
	return "Off"
}
