package main

import (
	"context"

	"shotty/internal/config"
	"shotty/internal/fleet"
	"shotty/pkg/errors"

	"github.com/spf13/cobra"
)

func newInstancesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instances",
		Aliases: []string{"instance", "ec2"},
		Short:   "Commands for instances",
	}

	cmd.AddCommand(
		newInstancesListCmd(),
		newInstancesStopCmd(),
		newInstancesStartCmd(),
		newInstancesRebootCmd(),
		newInstancesSnapshotCmd(),
		newInstancesTagCmd(),
	)
	return cmd
}

func newInstancesListCmd() *cobra.Command {
	var sel selectionFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, sel.criteria(), func(ctx context.Context, r *fleet.Runner, c fleet.Criteria, sink fleet.Sink) error {
				return r.ListInstances(ctx, c, sink)
			})
		},
	}
	sel.addListFlags(cmd)
	return cmd
}

func newInstancesStopCmd() *cobra.Command {
	var (
		sel  selectionFlags
		wait bool
	)
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop instances",
		Long: `Stop the selected instances. One of --instance, --project, --force or
--interactive is required.`,
		Example: `  shotty instances stop --project web
  shotty instances stop --instance i-0123456789abcdef0 --wait`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, sel.criteria(), func(ctx context.Context, r *fleet.Runner, c fleet.Criteria) (*fleet.BatchResult, error) {
				return r.Stop(ctx, c, wait)
			})
		},
	}
	sel.addActionFlags(cmd)
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until every instance is stopped")
	return cmd
}

func newInstancesStartCmd() *cobra.Command {
	var (
		sel  selectionFlags
		wait bool
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, sel.criteria(), func(ctx context.Context, r *fleet.Runner, c fleet.Criteria) (*fleet.BatchResult, error) {
				return r.Start(ctx, c, wait)
			})
		},
	}
	sel.addActionFlags(cmd)
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until every instance is running")
	return cmd
}

func newInstancesRebootCmd() *cobra.Command {
	var sel selectionFlags
	cmd := &cobra.Command{
		Use:   "reboot",
		Short: "Reboot instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, sel.criteria(), func(ctx context.Context, r *fleet.Runner, c fleet.Criteria) (*fleet.BatchResult, error) {
				return r.Reboot(ctx, c)
			})
		},
	}
	sel.addActionFlags(cmd)
	return cmd
}

func newInstancesSnapshotCmd() *cobra.Command {
	var (
		sel         selectionFlags
		description string
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Create snapshots of all volumes",
		Long: `Stop each selected instance, snapshot every attached volume and start it
again. Volumes with a snapshot still in progress are skipped. Instances that
were already stopped are left stopped.`,
		Example: `  shotty instances snapshot --project web
  shotty instances snapshot --instance i-0123456789abcdef0 --description "before upgrade"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("description") {
				config.Get().Snapshot.Description = description
			}
			return runAction(cmd, sel.criteria(), func(ctx context.Context, r *fleet.Runner, c fleet.Criteria) (*fleet.BatchResult, error) {
				return r.Snapshot(ctx, c)
			})
		},
	}
	sel.addActionFlags(cmd)
	cmd.Flags().StringVarP(&description, "description", "d", "", "snapshot description (default from config)")
	return cmd
}

func newInstancesTagCmd() *cobra.Command {
	var (
		sel        selectionFlags
		key, value string
	)
	cmd := &cobra.Command{
		Use:     "tag",
		Short:   "Tag instances",
		Example: `  shotty instances tag --instance i-0123456789abcdef0 --value web`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if value == "" {
				return errors.NewUsageError("--value must not be empty")
			}
			return runAction(cmd, sel.criteria(), func(ctx context.Context, r *fleet.Runner, c fleet.Criteria) (*fleet.BatchResult, error) {
				return r.Tag(ctx, c, key, value)
			})
		},
	}
	sel.addActionFlags(cmd)
	cmd.Flags().StringVar(&value, "value", "", "tag value (required)")
	cmd.Flags().StringVar(&key, "key", "", "tag key (default is the configured project tag key)")
	return cmd
}

type listFunc func(ctx context.Context, r *fleet.Runner, c fleet.Criteria, sink fleet.Sink) error

// runList resolves the output sink, then lists through a fresh runner.
func runList(cmd *cobra.Command, c fleet.Criteria, list listFunc) error {
	if c.InstanceID != "" {
		if err := c.Validate(false); err != nil {
			return err
		}
	}
	sink, err := newSink(cmd.OutOrStdout(), config.Get())
	if err != nil {
		return err
	}

	runner, err := newRunner(cmd)
	if err != nil {
		return err
	}
	return list(cmd.Context(), runner, c, sink)
}

type actionFunc func(ctx context.Context, r *fleet.Runner, c fleet.Criteria) (*fleet.BatchResult, error)

// runAction validates the selection before connecting, runs the batch and
// prints its summary. Any failed instance fails the command.
func runAction(cmd *cobra.Command, c fleet.Criteria, action actionFunc) error {
	if err := c.Validate(true); err != nil {
		return err
	}

	runner, err := newRunner(cmd)
	if err != nil {
		return err
	}

	result, err := action(cmd.Context(), runner, c)
	if result != nil {
		fleet.WriteSummary(cmd.OutOrStdout(), result)
	}
	if err != nil {
		return err
	}
	return result.Err()
}
