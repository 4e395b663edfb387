package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shotty/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigInitWritesDefaults(t *testing.T) {
	setupCLI(t, nil)

	res := execute(t, "config", "init")
	require.Equal(t, exitOK, res.code, res.logs)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(home, ".shotty.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "profile: shotty")
	assert.Contains(t, string(data), "tag_key: Project")
	assert.Contains(t, string(data), "wait_timeout: 15m0s")
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	setupCLI(t, nil)
	path := writeConfigFile(t, "profile: mine\n")

	res := execute(t, "config", "init")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.logs, "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "profile: mine\n", string(data))

	res = execute(t, "config", "init", "--force")
	require.Equal(t, exitOK, res.code, res.logs)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "profile: shotty")
}

func TestConfigInitInteractive(t *testing.T) {
	setupCLI(t, nil)
	path := filepath.Join(t.TempDir(), "shotty.yaml")

	root := newRootCmd()
	root.SetArgs([]string{"--config", path, "config", "init", "--interactive"})
	root.SetIn(strings.NewReader("ops\ncac1\nTeam\ntable\n"))
	root.SetOut(io.Discard)
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "profile: ops")
	assert.Contains(t, string(data), "region: ca-central-1")
	assert.Contains(t, string(data), "tag_key: Team")
	assert.Contains(t, string(data), "output: table")
}

func TestConfigShow(t *testing.T) {
	setupCLI(t, nil)
	path := writeConfigFile(t, "profile: ops\nregion: use1\n")

	res := execute(t, "config", "show")

	require.Equal(t, exitOK, res.code, res.logs)
	assert.Contains(t, res.stdout, "profile: ops")
	assert.Contains(t, res.stdout, "region: use1")
	assert.Contains(t, res.stdout, "Config File: "+path)
}

func TestConfigShowWithoutFile(t *testing.T) {
	setupCLI(t, nil)

	res := execute(t, "config", "show")

	require.Equal(t, exitOK, res.code, res.logs)
	assert.Contains(t, res.stdout, "Not found (using defaults)")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCode int
		want     string
	}{
		{"valid", "profile: ops\noutput: table\n", exitOK, "Configuration is valid"},
		{"bad output", "output: xml\n", exitFailure, `output must be "csv" or "table"`},
		{"bad region", "region: mars-1\n", exitFailure, "mars-1"},
		{"bad duration", "snapshot:\n  wait_timeout: soon\n", exitFailure, ""},
		{"broken yaml", "profile: [ops\n", exitFailure, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := setupCLI(t, nil)
			writeConfigFile(t, tt.content)

			res := execute(t, "config", "validate")

			assert.Equal(t, tt.wantCode, res.code, res.logs)
			assert.Contains(t, res.stdout+res.logs, tt.want)
			assert.Empty(t, stub.Calls())
		})
	}
}

func TestConfigCheck(t *testing.T) {
	stub := setupCLI(t, map[string][]string{
		"GetCallerIdentity": {testutil.CallerIdentityXML("123456789012", "arn:aws:iam::123456789012:user/ops")},
	})

	res := execute(t, "config", "check")

	require.Equal(t, exitOK, res.code, res.logs)
	assert.Contains(t, res.stdout, "Account: 123456789012")
	assert.Contains(t, res.stdout, "ARN:     arn:aws:iam::123456789012:user/ops")
	assert.Contains(t, res.stdout, "Profile: shotty")
	assert.Len(t, stub.CallsTo("GetCallerIdentity"), 1)
}

func TestConfigCheckInvalidCredentials(t *testing.T) {
	setupCLI(t, map[string][]string{
		"GetCallerIdentity": {testutil.EC2Error("InvalidClientTokenId", "The security token included in the request is invalid.")},
	})

	res := execute(t, "config", "check")

	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.logs, "failed to get caller identity")
}
