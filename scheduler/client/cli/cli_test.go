package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/fanout/common/errors"
)

func execCLI(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	c := NewCLIClient(&out).(*FanoutCLIClient)
	c.RootCmd.SetArgs(append(args, "--log_level", "error"))
	err := c.Exec()
	log.SetLevel(log.ErrorLevel)
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "fanout dev"), out)
}

func TestDryRun(t *testing.T) {
	out, err := execCLI(t, "run", "--dry_run", "--nodes", "h1, h2", "--transport", "ssh",
		"--runner", "python{version} -m pytest", "--runtime_version", "3.11", "--prefix", "cd /src &&",
		"tests/a.py", "tests/b.py", "tests/c.py")
	require.NoError(t, err)
	assert.Equal(t, "0\tssh h1 cd /src && python3.11 -m pytest -q tests/a.py\n"+
		"1\tssh h2 cd /src && python3.11 -m pytest -q tests/b.py\n"+
		"2\tssh h1 cd /src && python3.11 -m pytest -q tests/c.py\n", out)
}

func TestLocalRunSucceeds(t *testing.T) {
	statsFile := filepath.Join(t.TempDir(), "stats.json")
	testsFile := filepath.Join(t.TempDir(), "tests.txt")
	require.NoError(t, os.WriteFile(testsFile, []byte("# smoke\none\ntwo\n"), 0644))

	out, err := execCLI(t, "run", "--config", "local", "--runner", "echo", "--tests", testsFile,
		"--stats_file", statsFile, "three")
	require.NoError(t, err)
	assert.Equal(t, errors.SuccessExitCode, errors.ExitCodeOf(err))
	assert.Contains(t, out, "Total jobs:       3")
	assert.Contains(t, out, "Succeeded:        3")

	data, err := os.ReadFile(statsFile)
	require.NoError(t, err)
	var rendered map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &rendered))
	assert.Equal(t, 3.0, rendered["jobSucceededCounter"])
	assert.Equal(t, 1.0, rendered["discovery/discoveryFetchCounter"])
}

func TestLocalRunIncomplete(t *testing.T) {
	out, err := execCLI(t, "run", "--config", "local", "--runner", "false", "--max_passes", "2", "one")
	assert.Equal(t, errors.IncompleteRunExitCode, errors.ExitCodeOf(err))
	assert.Contains(t, out, "Failing:          1")
	assert.Contains(t, out, "localhost  2")
}

func TestUsageErrors(t *testing.T) {
	_, err := execCLI(t, "run", "--config", "local")
	assert.Equal(t, errors.UsageExitCode, errors.ExitCodeOf(err), "no tests")

	_, err = execCLI(t, "run", "--config", "nonexistent-config", "one")
	assert.Equal(t, errors.UsageExitCode, errors.ExitCodeOf(err))

	_, err = execCLI(t, "run", "--config", "local", "--fan_out=-1", "one")
	assert.Equal(t, errors.UsageExitCode, errors.ExitCodeOf(err))

	_, err = execCLI(t, "run", "--config", "local", "--tests", "/no/such/list")
	assert.Equal(t, errors.UsageExitCode, errors.ExitCodeOf(err))
}

func TestDiscoveryFailure(t *testing.T) {
	_, err := execCLI(t, "run", "--config", `{"Cluster": {"MaxRetries": 0}}`, "--discover_cmd", "true", "one")
	assert.Equal(t, errors.DiscoveryFailureExitCode, errors.ExitCodeOf(err))
}

func TestBadFlag(t *testing.T) {
	_, err := execCLI(t, "run", "--no_such_flag")
	assert.Equal(t, errors.UsageExitCode, errors.ExitCodeOf(err))
}
