package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"shotty/pkg/errors"
)

const fileHeader = `# shotty configuration file
# Keys can be overridden with SHOTTY_<KEY> environment variables,
# e.g. SHOTTY_PROFILE or SHOTTY_SNAPSHOT_WAIT_TIMEOUT.
`

// fileConfig is the on-disk layout. Durations are written as strings so
// that viper reads them back unchanged.
type fileConfig struct {
	Profile  string `yaml:"profile"`
	Region   string `yaml:"region"`
	TagKey   string `yaml:"tag_key"`
	Output   string `yaml:"output"`
	Snapshot struct {
		Description string `yaml:"description"`
		WaitTimeout string `yaml:"wait_timeout"`
	} `yaml:"snapshot"`
	Logging struct {
		Directory   string `yaml:"directory"`
		FileLogging bool   `yaml:"file_logging"`
		Level       string `yaml:"level"`
	} `yaml:"logging"`
}

func toFile(c *Config) fileConfig {
	var f fileConfig
	f.Profile = c.Profile
	f.Region = c.Region
	f.TagKey = c.TagKey
	f.Output = c.Output
	f.Snapshot.Description = c.Snapshot.Description
	f.Snapshot.WaitTimeout = c.Snapshot.WaitTimeout.String()
	f.Logging.Directory = c.Logging.Directory
	f.Logging.FileLogging = c.Logging.FileLogging
	f.Logging.Level = c.Logging.Level
	return f
}

// Marshal renders c as the YAML written by Write.
func Marshal(c *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toFile(c)); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return buf.Bytes(), nil
}

// Write saves c to path. An existing file is only replaced when overwrite
// is set.
func Write(path string, c *Config, overwrite bool) error {
	if Exists(path) && !overwrite {
		return errors.NewConfigError(fmt.Sprintf("configuration file already exists at %s (use --force to overwrite)", path), nil)
	}

	data, err := Marshal(c)
	if err != nil {
		return errors.NewConfigError("failed to render configuration", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return errors.NewConfigError("failed to create config directory", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.NewConfigError("failed to write config file", err)
	}
	return nil
}

// CheckSyntax parses the file at path as YAML and reports where it is
// malformed. It also rejects a wait_timeout that is not a Go duration.
func CheckSyntax(path string) error {
	// #nosec G304 - path comes from --config or the default location
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewConfigError("failed to read config file", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return errors.NewConfigError(fmt.Sprintf("invalid YAML in %s", path), err)
	}

	if snap, ok := raw["snapshot"].(map[string]interface{}); ok {
		if v, ok := snap["wait_timeout"].(string); ok {
			if _, err := time.ParseDuration(v); err != nil {
				return errors.NewConfigError("snapshot.wait_timeout is not a duration", err)
			}
		}
	}
	return nil
}
