package main

import (
	"context"

	"shotty/internal/fleet"

	"github.com/spf13/cobra"
)

func newSnapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshots",
		Aliases: []string{"snapshot"},
		Short:   "Commands for snapshots",
	}

	var (
		sel selectionFlags
		all bool
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the snapshots of instance volumes",
		Long: `List volume snapshots, newest first. By default each volume's listing stops
after its most recent completed snapshot; --all prints every snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, sel.criteria(), func(ctx context.Context, r *fleet.Runner, c fleet.Criteria, sink fleet.Sink) error {
				return r.ListSnapshots(ctx, c, all, sink)
			})
		},
	}
	sel.addListFlags(listCmd)
	listCmd.Flags().BoolVar(&all, "all", false, "list all snapshots for each volume, not just the most recent")

	cmd.AddCommand(listCmd)
	return cmd
}
