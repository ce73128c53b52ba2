// Package config holds the named JSON configurations of a run and turns them
// into the structures the scheduler, node discovery and command template use.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/fanout/cloud/cluster"
	"github.com/twitter/fanout/cloud/cluster/local"
	"github.com/twitter/fanout/common/stats"
	"github.com/twitter/fanout/scheduler/domain"
	"github.com/twitter/fanout/scheduler/server"
)

// JSONConfigs config structure holding the original json configs
type JSONConfigs struct {
	Cluster   ClusterJSONConfig   `json:"Cluster"`
	Scheduler SchedulerJSONConfig `json:"SchedulerConfig"`
	Command   CommandJSONConfig   `json:"Command"`
}

func (c JSONConfigs) String() string {
	return fmt.Sprintf("\n%s\n%s\n%s", c.Cluster, c.Scheduler, c.Command)
}

type ClusterJSONConfig struct {
	Type         string   `json:"Type"`         // static, command
	Nodes        []string `json:"Nodes"`        // static only
	Command      string   `json:"Command"`      // command only, prints one node per line
	RegexCapture string   `json:"RegexCapture"` // command only, optional
	Timeout      string   `json:"Timeout"`      // command only, default to 30s
	MaxRetries   uint64   `json:"MaxRetries"`   // default to 3
}

func (c ClusterJSONConfig) String() string {
	return fmt.Sprintf("ClusterJSONConfig: Type: %s, Nodes: %v, Command: %s, RegexCapture: %s, Timeout: %s, MaxRetries: %d",
		c.Type, c.Nodes, c.Command, c.RegexCapture, c.Timeout, c.MaxRetries)
}

type SchedulerJSONConfig struct {
	FanOutFactor            int     `json:"FanOutFactor"`
	RebalanceAt             int     `json:"RebalanceAt"`
	AbandonAt               int     `json:"AbandonAt"`
	CommandTimeout          string  `json:"CommandTimeout"` // default to 300s
	KillTimeout             string  `json:"KillTimeout"`
	MaxPasses               int     `json:"MaxPasses"`
	LockTimeout             string  `json:"LockTimeout"`
	RetireAbandoned         bool    `json:"RetireAbandoned"`
	CountTimeoutsAsFailures bool    `json:"CountTimeoutsAsFailures"`
	RebalancePolicy         string  `json:"RebalancePolicy"` // first, random
	StartRate               float64 `json:"StartRate"`       // commands started per second, 0 is unlimited
	StartBurst              int     `json:"StartBurst"`
}

func (sc SchedulerJSONConfig) String() string {
	return fmt.Sprintf("SchedulerJSONConfig: FanOutFactor: %d, RebalanceAt: %d, AbandonAt: %d, CommandTimeout: %s, KillTimeout: %s, "+
		"MaxPasses: %d, LockTimeout: %s, RetireAbandoned: %t, CountTimeoutsAsFailures: %t, RebalancePolicy: %s, StartRate: %g, StartBurst: %d",
		sc.FanOutFactor, sc.RebalanceAt, sc.AbandonAt, sc.CommandTimeout, sc.KillTimeout, sc.MaxPasses, sc.LockTimeout,
		sc.RetireAbandoned, sc.CountTimeoutsAsFailures, sc.RebalancePolicy, sc.StartRate, sc.StartBurst)
}

type CommandJSONConfig struct {
	Transport string   `json:"Transport"`
	Prefix    string   `json:"Prefix"`
	Runner    string   `json:"Runner"`
	Version   string   `json:"Version"`
	Args      []string `json:"Args"`
}

func (c CommandJSONConfig) String() string {
	return fmt.Sprintf("CommandJSONConfig: Transport: %s, Prefix: %s, Runner: %s, Version: %s, Args: %v",
		c.Transport, c.Prefix, c.Runner, c.Version, c.Args)
}

// GetConfigText returns the JSON text for a selector, which is the name of a
// built-in configuration, literal JSON, or the path of a JSON file.
func GetConfigText(configSelector string) ([]byte, error) {
	if configText, ok := SchedulerConfigs[configSelector]; ok {
		return []byte(configText), nil
	}
	if strings.HasPrefix(strings.TrimSpace(configSelector), "{") {
		return []byte(configSelector), nil
	}
	if data, err := os.ReadFile(configSelector); err == nil {
		return data, nil
	}

	keys := make([]string, 0, len(SchedulerConfigs))
	for k := range SchedulerConfigs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return nil, fmt.Errorf("invalid configuration %s, supported values are %v, a JSON object or a file path", configSelector, keys)
}

// GetConfig parses the selected configuration over the default one; only the
// fields the selected configuration sets replace default values. Arrays are
// replaced as a whole.
func GetConfig(configSelector string) (*JSONConfigs, error) {
	defaultConfigText, _ := GetConfigText("default")
	config := &JSONConfigs{}
	if err := json.Unmarshal(defaultConfigText, config); err != nil {
		return nil, errors.Wrap(err, "couldn't parse the default config")
	}
	if configSelector == "" || configSelector == "default" {
		return config, nil
	}

	configText, err := GetConfigText(configSelector)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(configText, config); err != nil {
		return nil, errors.Wrapf(err, "couldn't parse config %s", configSelector)
	}
	log.Debugf("using config: %s", config)
	return config, nil
}

func parseDuration(name, value string, dflt time.Duration) (time.Duration, error) {
	if value == "" {
		return dflt, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", name)
	}
	return d, nil
}

// CreateSchedulerConfig converts to a validated server.SchedulerConfig. Zero
// values keep the scheduler defaults.
func (jc SchedulerJSONConfig) CreateSchedulerConfig() (server.SchedulerConfig, error) {
	var err error
	sc := server.DefaultSchedulerConfig()
	if jc.FanOutFactor != 0 {
		sc.FanOutFactor = jc.FanOutFactor
	}
	if jc.RebalanceAt != 0 {
		sc.RebalanceAt = jc.RebalanceAt
	}
	if jc.AbandonAt != 0 {
		sc.AbandonAt = jc.AbandonAt
	}
	if jc.MaxPasses != 0 {
		sc.MaxPasses = jc.MaxPasses
	}
	if sc.CommandTimeout, err = parseDuration("CommandTimeout", jc.CommandTimeout, sc.CommandTimeout); err != nil {
		return sc, err
	}
	if sc.KillTimeout, err = parseDuration("KillTimeout", jc.KillTimeout, sc.KillTimeout); err != nil {
		return sc, err
	}
	if sc.LockTimeout, err = parseDuration("LockTimeout", jc.LockTimeout, sc.LockTimeout); err != nil {
		return sc, err
	}
	if jc.RebalancePolicy != "" {
		sc.RebalancePolicy = server.RebalancePolicy(jc.RebalancePolicy)
	}
	sc.RetireAbandoned = jc.RetireAbandoned
	sc.CountTimeoutsAsFailures = jc.CountTimeoutsAsFailures
	sc.StartRate = jc.StartRate
	sc.StartBurst = jc.StartBurst
	return sc, sc.Validate()
}

// CreateFetcher builds the node discovery Fetcher, retried with backoff until
// retries run out or ctx is done.
func (c ClusterJSONConfig) CreateFetcher(ctx context.Context, stat stats.StatsReceiver) (cluster.Fetcher, error) {
	timeout, err := parseDuration("Timeout", c.Timeout, local.DefaultFetchTimeout)
	if err != nil {
		return nil, err
	}
	retry := cluster.DefaultRetryConfig
	retry.MaxRetries = c.MaxRetries

	var fetcher cluster.Fetcher
	switch c.Type {
	case "static", "":
		if len(c.Nodes) == 0 {
			return nil, errors.New("static cluster config has no Nodes")
		}
		fetcher = cluster.MakeStaticFetcher(c.Nodes...)
	case "command":
		lc := &local.ClusterLocalConfig{Command: c.Command, RegexCapture: c.RegexCapture, Timeout: timeout}
		if fetcher, err = lc.Create(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown cluster type %q, supported values are static, command", c.Type)
	}
	return cluster.NewRetryingFetcher(ctx, fetcher, retry, stat), nil
}

// CreateCommand returns the command template shared by every job.
func (c CommandJSONConfig) CreateCommand() domain.Command {
	return domain.Command{
		Transport: c.Transport,
		Prefix:    c.Prefix,
		Runner:    c.Runner,
		Version:   c.Version,
		Args:      append([]string(nil), c.Args...),
	}
}
