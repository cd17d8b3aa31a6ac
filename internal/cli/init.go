package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize daybook storage",
		Long: `Create the configuration and data directories, write a default config.yaml,
and open the store once. Opening the embedded store copies in any data left
in the file fallback.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := os.MkdirAll(a.configDir, 0o755); err != nil {
				return sysError(fmt.Errorf("create config directory: %w", err))
			}
			created, err := writeConfigIfMissing(configPath(a.configDir), a.flags.dataDir)
			if err != nil {
				return sysError(fmt.Errorf("write config: %w", err))
			}
			if created {
				a.logger.Debug("wrote default config", "path", configPath(a.configDir))
			}

			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = s.finish(err) }()

			dataDir, err := a.dataDir()
			if err != nil {
				return sysError(err)
			}
			result := map[string]string{
				"backend":   s.backend.Name(),
				"configDir": a.configDir,
				"dataDir":   dataDir,
			}
			s.report(result, "Daybook initialized (%s backend)\n  config: %s\n  data:   %s\n",
				s.backend.Name(), a.configDir, dataDir)
			return nil
		},
	}
}
