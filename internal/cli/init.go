package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/appendable/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long:  "Write config.yaml if it is missing, then create the data directory and apply schema migrations.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dataDir, err := a.resolveDataDir()
			if err != nil {
				return fmt.Errorf("resolve data dir: %w", err)
			}

			settings := a.settings
			settings.DataDir = dataDir
			configPath := filepath.Join(a.settings.ConfigDir, configFileExt)
			if _, err := writeConfigIfMissing(configPath, settings); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			logger, err := a.logger(cmd)
			if err != nil {
				return err
			}
			backend := sqlite.NewBackend(sqlite.WithLogger(logger))
			if err := backend.Attach(a.settings.timelineConfig(dataDir)); err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}
			if err := backend.Detach(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}

			return a.printer(cmd).Message(fmt.Sprintf("appendable initialized (config %s, data %s)", configPath, dataDir))
		},
	}
}
