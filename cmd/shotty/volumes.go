package main

import (
	"context"

	"shotty/internal/fleet"

	"github.com/spf13/cobra"
)

func newVolumesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "volumes",
		Aliases: []string{"volume", "ebs"},
		Short:   "Commands for volumes",
	}

	var sel selectionFlags
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the volumes of instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, sel.criteria(), func(ctx context.Context, r *fleet.Runner, c fleet.Criteria, sink fleet.Sink) error {
				return r.ListVolumes(ctx, c, sink)
			})
		},
	}
	sel.addListFlags(listCmd)

	cmd.AddCommand(listCmd)
	return cmd
}
