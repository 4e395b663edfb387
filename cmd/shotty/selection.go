package main

import (
	"shotty/internal/fleet"

	"github.com/spf13/cobra"
)

// selectionFlags holds the instance selection flags shared by subcommands.
type selectionFlags struct {
	instance    string
	project     string
	force       bool
	interactive bool
}

// addListFlags registers the selectors of the read-only commands.
func (f *selectionFlags) addListFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.instance, "instance", "i", "", "only the instance with this ID")
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "only instances whose project tag has this value")
}

// addActionFlags registers the selectors of the commands that change instances.
func (f *selectionFlags) addActionFlags(cmd *cobra.Command) {
	f.addListFlags(cmd)
	cmd.Flags().BoolVar(&f.force, "force", false, "act on every instance in the region")
	cmd.Flags().BoolVar(&f.interactive, "interactive", false, "pick the instance with a fuzzy finder")
}

func (f *selectionFlags) criteria() fleet.Criteria {
	return fleet.Criteria{
		InstanceID:  f.instance,
		Project:     f.project,
		Force:       f.force,
		Interactive: f.interactive,
	}
}
