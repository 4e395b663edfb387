package main

import (
	"fmt"

	"shotty/internal/config"
	"shotty/pkg/colors"
	"shotty/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
		Long: `Manage shotty configuration including initialization, validation, and display.

Examples:
  shotty config init                    # Write ~/.shotty.yaml with defaults
  shotty config init --interactive      # Answer a few questions first
  shotty config show                    # Show the effective configuration
  shotty config check                   # Verify AWS credentials`,
		Annotations: map[string]string{allowInvalidConfig: "true"},
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(),
		newConfigValidateCmd(),
		newConfigCheckCmd(),
	)
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force, interactive bool
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Initialize configuration",
		Long:        `Create a configuration file holding the default settings.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{allowInvalidConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			if config.Exists(path) && !force {
				return errors.NewConfigError(fmt.Sprintf("configuration file already exists at %s (use --force to overwrite)", path), nil)
			}

			cfg := config.Defaults()
			if interactive {
				prompted, err := config.Prompt(cmd.InOrStdin(), cmd.OutOrStdout(), cfg)
				if err != nil {
					return err
				}
				cfg = prompted
			}

			if err := config.Write(path, cfg, force); err != nil {
				return err
			}
			colors.PrintSuccess("✓ Configuration written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing configuration file")
	cmd.Flags().BoolVarP(&interactive, "interactive", "I", false, "prompt for the main settings")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Display current configuration",
		Long:        `Display the effective configuration after merging the file, environment and flags.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{allowInvalidConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Marshal(config.Get())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = colors.Header.Fprintln(out, "=== Current Configuration ===")
			fmt.Fprint(out, string(data))

			path := configPath()
			if config.Exists(path) {
				fmt.Fprintf(out, "\nConfig File: %s\n", path)
			} else {
				fmt.Fprintf(out, "\nConfig File: Not found (using defaults)\n")
				fmt.Fprintf(out, "Run 'shotty config init' to create configuration file\n")
			}
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Long:        `Validate the shotty configuration file for syntax and field values.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{allowInvalidConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			path := configPath()
			if config.Exists(path) {
				if err := config.CheckSyntax(path); err != nil {
					return err
				}
				fmt.Fprintf(out, "Checking %s\n", path)
			} else {
				fmt.Fprintf(out, "No configuration file at %s, checking defaults\n", path)
			}

			problems := config.Problems(config.Get())
			for _, p := range problems {
				_, _ = colors.Error.Fprintf(out, "  ✗ %s\n", p)
			}
			if len(problems) > 0 {
				return errors.NewValidationError(fmt.Sprintf("configuration has %d problem(s)", len(problems)))
			}

			_, _ = colors.Success.Fprintln(out, "✓ Configuration is valid")
			return nil
		},
	}
}

func newConfigCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check AWS credentials",
		Long: `Call STS GetCallerIdentity with the configured profile and region to confirm
that the credentials work.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{allowInvalidConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if err := config.Validate(cfg); err != nil {
				return err
			}

			client, err := clientFactory(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			identity, err := client.GetCallerIdentity(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = colors.Header.Fprintln(out, "=== AWS Identity ===")
			fmt.Fprintf(out, "Profile: %s\n", cfg.Profile)
			fmt.Fprintf(out, "Region:  %s\n", client.Config.Region)
			fmt.Fprintf(out, "Account: %s\n", aws.ToString(identity.Account))
			fmt.Fprintf(out, "ARN:     %s\n", aws.ToString(identity.Arn))
			_, _ = colors.Success.Fprintln(out, "✓ Credentials are valid")
			return nil
		},
	}
}
