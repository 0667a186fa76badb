package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/appendable/internal/sqlite"
	"github.com/mesh-intelligence/appendable/pkg/types"
)

func newEntryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Add, list and delete nested entries",
	}
	cmd.AddCommand(newEntryAddCmd(a), newEntryListCmd(a), newEntryDeleteCmd(a))
	return cmd
}

func newEntryAddCmd(a *app) *cobra.Command {
	var (
		at       string
		parent   string
		todo     bool
		estimate time.Duration
		tags     []string
	)
	cmd := &cobra.Command{
		Use:   "add [text...]",
		Short: "Add an entry, closing open entries at the same depth or deeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseTimeFlag("at", at, time.Now())
			if err != nil {
				return err
			}
			in := types.EntryInput{
				Parent:         optionalString(parent),
				StartTimestamp: start,
				Text:           strings.Join(args, " "),
				ShowTodo:       todo,
				TagIDs:         tags,
			}
			if estimate > 0 {
				secs := int64(estimate / time.Second)
				in.EstimatedDuration = &secs
			}
			return a.withTimeline(cmd, func(tl *sqlite.Backend) error {
				entry, err := tl.Entries().Insert(cmd.Context(), in)
				if err != nil {
					return err
				}
				return a.printer(cmd).Entry(entry)
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "start time, RFC 3339 (default: now)")
	cmd.Flags().StringVar(&parent, "parent", "", "parent entry id (default: root)")
	cmd.Flags().BoolVar(&todo, "todo", false, "show the entry as a todo item")
	cmd.Flags().DurationVar(&estimate, "estimate", 0, "estimated duration, e.g. 25m")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag id (repeatable)")
	return cmd
}

func newEntryListCmd(a *app) *cobra.Command {
	var rf rangeFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries starting inside a time range, depth first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := rf.resolve(time.Now())
			if err != nil {
				return err
			}
			return a.withTimeline(cmd, func(tl *sqlite.Backend) error {
				entries, err := tl.Entries().List(cmd.Context(), r)
				if err != nil {
					return err
				}
				return a.printer(cmd).Entries(entries)
			})
		},
	}
	rf.register(cmd)
	return cmd
}

func newEntryDeleteCmd(a *app) *cobra.Command {
	var withChildren bool
	cmd := &cobra.Command{
		Use:   "delete <entry-id>",
		Short: "Delete an entry, optionally with its whole subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTimeline(cmd, func(tl *sqlite.Backend) error {
				existed, err := tl.Entries().Delete(cmd.Context(), args[0], withChildren)
				if err != nil {
					return err
				}
				if !existed {
					return types.NewError(types.CodeNotFound, fmt.Sprintf("entry %s not found", args[0]))
				}
				return a.printer(cmd).Message(fmt.Sprintf("deleted entry %s", args[0]))
			})
		},
	}
	cmd.Flags().BoolVar(&withChildren, "with-children", false, "also delete every descendant")
	return cmd
}
