package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/appendable/internal/sqlite"
)

func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Inspect the project registry",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withTimeline(cmd, func(tl *sqlite.Backend) error {
				projects, err := tl.Categories().ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				return a.printer(cmd).Projects(projects)
			})
		},
	})
	return cmd
}
