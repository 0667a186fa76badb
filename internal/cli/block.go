package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/appendable/internal/sqlite"
	"github.com/mesh-intelligence/appendable/pkg/types"
)

func newBlockCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Start, list and delete top-level blocks",
	}
	cmd.AddCommand(newBlockStartCmd(a), newBlockListCmd(a), newBlockDeleteCmd(a))
	return cmd
}

func newBlockStartCmd(a *app) *cobra.Command {
	var (
		at      string
		project string
		tags    []string
	)
	cmd := &cobra.Command{
		Use:   "start [text...]",
		Short: "Start a block, closing the open one",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseTimeFlag("at", at, time.Now())
			if err != nil {
				return err
			}
			in := types.BlockInput{
				Text:    strings.Join(args, " "),
				Project: optionalString(project),
				Start:   start,
				TagIDs:  tags,
			}
			return a.withTimeline(cmd, func(tl *sqlite.Backend) error {
				block, err := tl.Blocks().Insert(cmd.Context(), in)
				if err != nil {
					return err
				}
				return a.printer(cmd).Block(block)
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "start time, RFC 3339 (default: now)")
	cmd.Flags().StringVar(&project, "project", "", "project id")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag id (repeatable)")
	return cmd
}

func newBlockListCmd(a *app) *cobra.Command {
	var rf rangeFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List blocks starting inside a time range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := rf.resolve(time.Now())
			if err != nil {
				return err
			}
			return a.withTimeline(cmd, func(tl *sqlite.Backend) error {
				blocks, err := tl.Blocks().List(cmd.Context(), r)
				if err != nil {
					return err
				}
				return a.printer(cmd).Blocks(blocks)
			})
		},
	}
	rf.register(cmd)
	return cmd
}

func newBlockDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <block-id>",
		Short: "Delete a block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTimeline(cmd, func(tl *sqlite.Backend) error {
				removed, err := tl.Blocks().Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return types.NewError(types.CodeNotFound, fmt.Sprintf("block %s not found", args[0]))
				}
				return a.printer(cmd).Message(fmt.Sprintf("deleted block %s", args[0]))
			})
		},
	}
}
