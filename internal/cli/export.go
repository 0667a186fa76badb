package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/appendable/internal/sqlite"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every table to <dir> as JSONL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTimeline(cmd, func(tl *sqlite.Backend) error {
				counts, err := tl.Export(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printer(cmd).Counts("exported", counts)
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Replace all stored data with the JSONL files in <dir>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTimeline(cmd, func(tl *sqlite.Backend) error {
				counts, err := tl.Import(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printer(cmd).Counts("imported", counts)
			})
		},
	}
}
