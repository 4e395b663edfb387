package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"shotty/pkg/aws"
	"shotty/pkg/errors"
	"shotty/pkg/logging"
	"shotty/pkg/security"
)

// Output formats accepted by --output and the output key.
const (
	OutputCSV   = "csv"
	OutputTable = "table"
)

// DefaultSnapshotDescription is attached to snapshots created by shotty.
const DefaultSnapshotDescription = "Created by shotty"

// Config represents the application configuration
type Config struct {
	// AWS shared-config profile used for every call
	Profile string `mapstructure:"profile"`

	// Region override; empty means the profile's region
	Region string `mapstructure:"region"`

	// Tag key that groups instances into projects
	TagKey string `mapstructure:"tag_key"`

	// Output format (csv, table)
	Output string `mapstructure:"output"`

	Snapshot SnapshotConfig `mapstructure:"snapshot"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// SnapshotConfig controls the snapshot workflow.
type SnapshotConfig struct {
	Description string        `mapstructure:"description"`
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	// Log directory path; empty means the platform default
	Directory string `mapstructure:"directory"`

	// Enable file logging
	FileLogging bool `mapstructure:"file_logging"`

	// Log level (debug, info, warn, error)
	Level string `mapstructure:"level"`
}

var (
	// Global configuration instance
	cfg *Config
)

// LoadWithOptions loads the configuration. With allowInvalid set, an invalid
// configuration is still installed and its problems are returned instead of
// an error, so that config commands can report and repair it.
func LoadWithOptions(allowInvalid bool) ([]string, error) {
	setDefaults()

	loaded := &Config{}
	if err := viper.Unmarshal(loaded); err != nil {
		return nil, errors.NewConfigError("failed to unmarshal configuration", err)
	}
	loaded.Logging.Directory = expandPath(loaded.Logging.Directory)

	problems := Problems(loaded)
	if len(problems) > 0 && !allowInvalid {
		return problems, errors.NewValidationError(problems[0])
	}

	cfg = loaded
	return problems, nil
}

// Get returns the global configuration instance
func Get() *Config {
	if cfg == nil {
		cfg = Defaults()
	}
	return cfg
}

// Defaults returns a Config holding the built-in defaults.
func Defaults() *Config {
	return &Config{
		Profile: aws.DefaultProfile,
		TagKey:  aws.ProjectTagKey,
		Output:  OutputCSV,
		Snapshot: SnapshotConfig{
			Description: DefaultSnapshotDescription,
			WaitTimeout: aws.DefaultWaitTimeout,
		},
		Logging: LoggingConfig{
			FileLogging: true,
			Level:       "info",
		},
	}
}

// setDefaults sets default configuration values
func setDefaults() {
	d := Defaults()

	viper.SetDefault("profile", d.Profile)
	viper.SetDefault("region", d.Region)
	viper.SetDefault("tag_key", d.TagKey)
	viper.SetDefault("output", d.Output)

	viper.SetDefault("snapshot.description", d.Snapshot.Description)
	viper.SetDefault("snapshot.wait_timeout", d.Snapshot.WaitTimeout)

	viper.SetDefault("logging.directory", d.Logging.Directory)
	viper.SetDefault("logging.file_logging", d.Logging.FileLogging)
	viper.SetDefault("logging.level", d.Logging.Level)
}

// Validate checks every field and returns the first problem as a
// validation error.
func Validate(c *Config) error {
	if problems := Problems(c); len(problems) > 0 {
		return errors.NewValidationError(problems[0])
	}
	return nil
}

// Problems lists every invalid field of c.
func Problems(c *Config) []string {
	var problems []string

	if strings.TrimSpace(c.Profile) == "" {
		problems = append(problems, "profile must not be empty")
	}
	if c.Region != "" {
		if _, err := aws.ValidateRegionInput(c.Region); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if strings.TrimSpace(c.TagKey) == "" {
		problems = append(problems, "tag_key must not be empty")
	}
	if c.Output != OutputCSV && c.Output != OutputTable {
		problems = append(problems, fmt.Sprintf("output must be %q or %q, got %q", OutputCSV, OutputTable, c.Output))
	}
	if c.Snapshot.WaitTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("snapshot.wait_timeout must be positive, got %s", c.Snapshot.WaitTimeout))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Logging.Directory != "" && security.ContainsUnsafePath(c.Logging.Directory) {
		problems = append(problems, fmt.Sprintf("logging.directory %q contains an unsafe path", c.Logging.Directory))
	}

	return problems
}

// DefaultPath returns the default configuration file path
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".shotty.yaml")
}

// Exists checks if a configuration file exists at path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandPath expands paths with tilde (~) to the user's home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}

	// Handle tilde expansion
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path // Return original path if we can't get home dir
		}
		return filepath.Join(home, path[2:])
	}

	// Handle bare tilde
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}

	return path
}
