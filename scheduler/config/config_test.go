package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/fanout/cloud/cluster"
	"github.com/twitter/fanout/scheduler/server"
)

// Tests to ensure config is properly specified
// and that they parse correctly
func TestGettingConfigurations(t *testing.T) {
	for name := range SchedulerConfigs {
		config, err := GetConfig(name)
		require.Nil(t, err, fmt.Sprintf("error getting config %s: %s", name, err))
		_, err = config.Scheduler.CreateSchedulerConfig()
		assert.NoError(t, err, name)
	}

	selector := "invalid.selector"
	config, err := GetConfig(selector)
	assert.NotNil(t, err, fmt.Sprintf("configuration returned for %s: %s", selector, config))
}

// TestCreatingConfigStruct test overriding default structure values with values
// from the selected configuration.
func TestCreatingConfigStruct(t *testing.T) {
	config, err := GetConfig("ci")
	require.Nil(t, err)
	assert.Equal(t, "command", config.Cluster.Type)
	assert.Equal(t, uint64(5), config.Cluster.MaxRetries)
	assert.Equal(t, 3, config.Scheduler.FanOutFactor, "kept from default")
	assert.Equal(t, 8, config.Scheduler.MaxPasses)
	assert.True(t, config.Scheduler.RetireAbandoned)
	assert.Equal(t, "3", config.Command.Version)

	local, err := GetConfig("local")
	require.Nil(t, err)
	assert.Equal(t, "", local.Command.Transport)
	assert.Equal(t, []string{"localhost"}, local.Cluster.Nodes)
}

func TestLiteralAndFileConfig(t *testing.T) {
	config, err := GetConfig(`{"Cluster": {"Nodes": ["h1", "h2"]}, "SchedulerConfig": {"CommandTimeout": "2m"}}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"h1", "h2"}, config.Cluster.Nodes)
	sc, err := config.Scheduler.CreateSchedulerConfig()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, sc.CommandTimeout)
	assert.Equal(t, 10, sc.MaxPasses)

	path := filepath.Join(t.TempDir(), "fanout.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"SchedulerConfig": {"FanOutFactor": 5}}`), 0644))
	config, err = GetConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, config.Scheduler.FanOutFactor)

	_, err = GetConfig(`{"SchedulerConfig": `)
	assert.Error(t, err)
}

func TestCreateSchedulerConfig(t *testing.T) {
	sc, err := SchedulerJSONConfig{}.CreateSchedulerConfig()
	require.NoError(t, err)
	assert.Equal(t, server.DefaultSchedulerConfig(), sc)

	_, err = SchedulerJSONConfig{CommandTimeout: "soon"}.CreateSchedulerConfig()
	assert.Error(t, err)
	_, err = SchedulerJSONConfig{RebalanceAt: 6, AbandonAt: 6}.CreateSchedulerConfig()
	assert.Error(t, err)
	_, err = SchedulerJSONConfig{RebalancePolicy: "sticky"}.CreateSchedulerConfig()
	assert.Error(t, err)
}

func TestCreateFetcher(t *testing.T) {
	f, err := ClusterJSONConfig{Type: "static", Nodes: []string{"b", "a"}}.CreateFetcher(context.Background(), nil)
	require.NoError(t, err)
	nodes, err := f.Fetch()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cluster.Hostnames(nodes))

	f, err = ClusterJSONConfig{Type: "command", Command: "echo hostX"}.CreateFetcher(context.Background(), nil)
	require.NoError(t, err)
	nodes, err = f.Fetch()
	require.NoError(t, err)
	assert.Equal(t, []string{"hostX"}, cluster.Hostnames(nodes))

	_, err = ClusterJSONConfig{Type: "static"}.CreateFetcher(context.Background(), nil)
	assert.Error(t, err)
	_, err = ClusterJSONConfig{Type: "zookeeper"}.CreateFetcher(context.Background(), nil)
	assert.Error(t, err)
	_, err = ClusterJSONConfig{Type: "command", Timeout: "x"}.CreateFetcher(context.Background(), nil)
	assert.Error(t, err)
}

func TestCreateCommand(t *testing.T) {
	config, err := GetConfig("default")
	require.NoError(t, err)
	cmd := config.Command.CreateCommand()
	assert.Equal(t, "ssh -o BatchMode=yes -o ConnectTimeout=10 h1 python3 -m pytest -q tests/a.py",
		cmd.WithTarget("tests/a.py").Compose("h1"))
}
