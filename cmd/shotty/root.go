package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"shotty/internal/config"
	"shotty/internal/fleet"
	"shotty/internal/interactive"
	"shotty/internal/progress"
	"shotty/pkg/aws"
	"shotty/pkg/errors"
	"shotty/pkg/logging"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version can be set at build time with -ldflags "-X main.Version=X.Y.Z"
var Version = "0.3.0"

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// annotation marking commands that must run even with an invalid config
const allowInvalidConfig = "allow-invalid-config"

var (
	configFile string
	debug      bool
	logger     *logging.Logger
)

// clientFactory builds the AWS clients for a command; tests replace it.
var clientFactory = func(ctx context.Context, cfg *config.Config) (*aws.Client, error) {
	region, err := aws.ResolveRegion(cfg.Region)
	if err != nil {
		return nil, errors.NewConfigError("invalid region", err)
	}
	return aws.NewClient(ctx, aws.ClientOptions{Region: region, Profile: cfg.Profile})
}

// waiterFactory builds the state waiter used by --wait and snapshots.
var waiterFactory = func(api ec2.DescribeInstancesAPIClient, timeout time.Duration) fleet.Waiter {
	return aws.NewInstanceWaiter(api, timeout)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shotty",
		Short: "Manage EC2 instances, volumes and snapshots",
		Long: `shotty lists and manages EC2 instances, their attached EBS volumes and the
volume snapshots. Instances can be narrowed to one ID or to a project tag.

Commands that change instances require --instance, --project, --force or
--interactive so that the whole fleet is never touched by accident.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, allowInvalid := cmd.Annotations[allowInvalidConfig]
			return setupConfiguration(allowInvalid)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is $HOME/.shotty.yaml)")
	flags.BoolVar(&debug, "debug", false, "enable debug output")
	flags.String("profile", aws.DefaultProfile, "AWS shared config profile")
	flags.StringP("region", "r", "", "AWS region or shortcode (cac1, use1, euw1, etc.) - default from profile")
	flags.StringP("output", "o", config.OutputCSV, "output format: csv or table")

	_ = viper.BindPFlag("profile", flags.Lookup("profile"))
	_ = viper.BindPFlag("region", flags.Lookup("region"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.NewUsageError(err.Error())
	})

	rootCmd.AddCommand(
		newInstancesCmd(),
		newVolumesCmd(),
		newSnapshotsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	defer logging.CloseLogger()

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return exitOK
	}

	logging.LogError("%v", err)
	logHints(err)
	if errors.IsUsage(err) || isCobraUsageError(err) {
		fmt.Fprint(rootCmd.ErrOrStderr(), cmd.UsageString())
		return exitUsage
	}
	return exitFailure
}

// logHints suggests a fix for errors that carry a known context key.
func logHints(err error) {
	var shottyErr *errors.ShottyError
	if !stderrors.As(err, &shottyErr) {
		return
	}
	if profile, ok := shottyErr.GetContext("profile"); ok {
		logging.LogInfo("Check that profile %v exists in your AWS config, or pass --profile", profile)
	}
}

func isCobraUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "accepts ") ||
		strings.HasPrefix(msg, "required flag")
}

// setupConfiguration reads the config file and environment, then applies
// logging settings.
func setupConfiguration(allowInvalid bool) error {
	logger = logging.NewLogger(debug)

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("unable to find home directory: %w", err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".shotty")
	}

	viper.SetEnvPrefix("SHOTTY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !stderrors.As(err, &notFound) {
			if !allowInvalid {
				return errors.NewConfigError("failed to read config file", err)
			}
			logger.Warn("Could not read config file", "error", err)
		}
	} else {
		logger.Debug("Using config file", "file", viper.ConfigFileUsed())
	}

	problems, err := config.LoadWithOptions(allowInvalid)
	if err != nil {
		return err
	}
	for _, p := range problems {
		logger.Warn("Configuration problem", "problem", p)
	}

	cfg := config.Get()
	level, _ := logging.ParseLevel(cfg.Logging.Level)
	if debug {
		level = logging.DebugLevel
	}
	logging.SetLevel(level)

	if cfg.Logging.FileLogging {
		logging.SetupFileLogger(cfg.Logging.Directory)
	}
	return nil
}

// configPath is the file config commands read and write.
func configPath() string {
	if configFile != "" {
		return configFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return config.DefaultPath()
}

// newRunner connects to AWS and builds a runner writing to cmd's output.
func newRunner(cmd *cobra.Command) (*fleet.Runner, error) {
	cfg := config.Get()

	client, err := clientFactory(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("AWS client ready", "profile", cfg.Profile, "region", client.Config.Region)

	return fleet.NewRunner(client.EC2, waiterFactory(client.EC2, cfg.Snapshot.WaitTimeout), fleet.Options{
		TagKey:              cfg.TagKey,
		SnapshotDescription: cfg.Snapshot.Description,
		Out:                 cmd.OutOrStdout(),
		Logger:              logger,
		Picker:              interactive.NewFuzzyInstanceSelector(cfg.TagKey),
		Progress:            progress.Run,
	}), nil
}
