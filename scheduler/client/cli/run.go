package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twitter/fanout/common"
	"github.com/twitter/fanout/common/client"
	"github.com/twitter/fanout/common/endpoints"
	"github.com/twitter/fanout/common/errors"
	"github.com/twitter/fanout/common/log/hooks"
	"github.com/twitter/fanout/common/stats"
	"github.com/twitter/fanout/scheduler/config"
	"github.com/twitter/fanout/scheduler/executor"
	"github.com/twitter/fanout/scheduler/server"
	"github.com/twitter/fanout/scheduler/setup"
)

type runCmd struct {
	configSelector string
	testsPath      string
	nodes          string
	discoverCmd    string
	runner         string
	runtimeVersion string
	prefix         string
	transport      string
	maxPasses      int
	fanOut         int
	timeout        time.Duration
	httpAddr       string
	statsFile      string
	dryRun         bool
	showOutput     bool
}

func (c *runCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "run [flags] [test...]",
		Short: "Run a test suite across the discovered nodes",
		Long: "Run every test from --tests and the arguments, one job per test, assigned round robin\n" +
			"to the discovered nodes. Exits 0 if every job succeeded, 1 if some did not.",
	}
	flags := r.Flags()
	flags.StringVar(&c.configSelector, "config", "default", "Config name (default|local|ci), literal JSON, or a JSON file path")
	flags.StringVar(&c.testsPath, "tests", "", "File listing one test per line, '-' for stdin")
	flags.StringVar(&c.nodes, "nodes", "", "Comma separated hosts, overrides the configured discovery")
	flags.StringVar(&c.discoverCmd, "discover_cmd", "", "Command printing one reachable host per line, overrides the configured discovery")
	flags.StringVar(&c.runner, "runner", "", "Test runner executable run on each host, '{version}' is replaced by --runtime_version")
	flags.StringVar(&c.runtimeVersion, "runtime_version", "", "Runtime version substituted into the runner name")
	flags.StringVar(&c.prefix, "prefix", "", "Shell fragment run on the host before the runner")
	flags.StringVar(&c.transport, "transport", "", "Command used to reach a host, ex: 'ssh -o BatchMode=yes'. Empty runs locally")
	flags.IntVar(&c.maxPasses, "max_passes", 0, "Maximum number of scheduling passes")
	flags.IntVar(&c.fanOut, "fan_out", 0, "Concurrent jobs per node")
	flags.DurationVar(&c.timeout, "timeout", 0, "Hard timeout of a single job")
	flags.StringVar(&c.httpAddr, "http_addr", "", "Serve /health and /admin/metrics.json on this address while running")
	flags.StringVar(&c.statsFile, "stats_file", "", "Write the final stats as JSON to this file")
	flags.BoolVar(&c.dryRun, "dry_run", false, "Print the command of every job and exit")
	flags.BoolVar(&c.showOutput, "show_output", false, "Stream the output of every command to stderr")
	return r
}

// loadConfig resolves the selected configuration and applies flag overrides.
func (c *runCmd) loadConfig(cmd *cobra.Command) (*config.JSONConfigs, server.SchedulerConfig, error) {
	cfg, err := config.GetConfig(c.configSelector)
	if err != nil {
		return nil, server.SchedulerConfig{}, err
	}
	flags := cmd.Flags()
	switch {
	case c.nodes != "":
		cfg.Cluster.Type = "static"
		cfg.Cluster.Nodes = common.SplitCommaSep(c.nodes)
	case c.discoverCmd != "":
		cfg.Cluster.Type = "command"
		cfg.Cluster.Command = c.discoverCmd
		cfg.Cluster.RegexCapture = ""
	}
	if flags.Changed("runner") {
		cfg.Command.Runner = c.runner
	}
	if flags.Changed("runtime_version") {
		cfg.Command.Version = c.runtimeVersion
	}
	if flags.Changed("prefix") {
		cfg.Command.Prefix = c.prefix
	}
	if flags.Changed("transport") {
		cfg.Command.Transport = c.transport
	}

	sc, err := cfg.Scheduler.CreateSchedulerConfig()
	if err != nil {
		return nil, sc, err
	}
	if c.maxPasses != 0 {
		sc.MaxPasses = c.maxPasses
	}
	if c.fanOut != 0 {
		sc.FanOutFactor = c.fanOut
	}
	if c.timeout != 0 {
		sc.CommandTimeout = c.timeout
	}
	return cfg, sc, sc.Validate()
}

func (c *runCmd) readTests(args []string) ([]string, error) {
	tests := []string{}
	if c.testsPath != "" {
		fromFile, err := setup.ReadTestListFile(c.testsPath)
		if err != nil {
			return nil, err
		}
		tests = append(tests, fromFile...)
	}
	tests = append(tests, args...)
	if len(tests) == 0 {
		return nil, setup.ErrNoTests
	}
	return tests, nil
}

func (c *runCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	cfg, schedConfig, err := c.loadConfig(cmd)
	if err != nil {
		return errors.NewError(err, errors.UsageExitCode)
	}
	tests, err := c.readTests(args)
	if err != nil {
		return errors.NewError(err, errors.UsageExitCode)
	}

	runID := common.GenUUID()
	log.AddHook(hooks.NewFieldsHook(log.Fields{"runID": runID}))
	log.Infof("%s\n%s", cfg, schedConfig)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stat := stats.DefaultStatsReceiver()
	fetcher, err := cfg.Cluster.CreateFetcher(ctx, stat.Scope("discovery"))
	if err != nil {
		return errors.NewError(err, errors.UsageExitCode)
	}
	state, err := setup.NewRunState(fetcher, tests, cfg.Command.CreateCommand())
	if err != nil {
		return errors.NewError(err, errors.DiscoveryFailureExitCode)
	}

	if c.dryRun {
		return printCommands(cl.Out, state)
	}

	if c.httpAddr != "" {
		srvCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		srv := endpoints.NewTwitterServer(c.httpAddr, stat, func() interface{} { return runStatus(runID, state) })
		go func() {
			if err := srv.Serve(srvCtx); err != nil {
				log.Errorf("http server stopped: %v", err)
			}
		}()
	}

	var output io.Writer
	if c.showOutput {
		output = os.Stderr
	}
	exec := executor.NewOsExecutor(schedConfig.KillTimeout, output)
	rebalancer := server.NewRebalancer(fetcher, schedConfig.RebalancePolicy, stat)
	runner := server.NewJobRunner(state, exec, rebalancer, schedConfig, stat)
	sched := server.NewPassScheduler(state, runner, schedConfig, stat)
	summary := server.NewDriver(state, sched, schedConfig, stat).Run(ctx)

	if err := summary.Write(cl.Out); err != nil {
		log.Errorf("writing summary: %v", err)
	}
	if log.IsLevelEnabled(log.DebugLevel) {
		summary.Dump(os.Stderr)
	}
	if c.statsFile != "" {
		if err := os.WriteFile(c.statsFile, stat.Render(true), 0644); err != nil {
			log.Errorf("writing stats file %s: %v", c.statsFile, err)
		}
	}

	if code := summary.ExitCode(); code != errors.SuccessExitCode {
		return errors.NewErrorf(code, "%d of %d jobs did not succeed", summary.Total-summary.Succeeded, summary.Total)
	}
	return nil
}

func printCommands(w io.Writer, state *server.RunState) error {
	jobs := state.Jobs.Items()
	byID := make(map[int]string, len(jobs))
	for _, e := range jobs {
		byID[e.Key] = e.Value.GetCommand()
	}
	for id := 0; id < len(jobs); id++ {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", id, byID[id]); err != nil {
			return err
		}
	}
	return nil
}

func runStatus(runID string, state *server.RunState) map[string]interface{} {
	return map[string]interface{}{
		"runID":     runID,
		"jobs":      state.Jobs.Len(),
		"completed": state.Completed.Len(),
		"nodes":     state.Nodes.Len(),
	}
}
