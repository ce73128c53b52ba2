package server

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/fanout/cloud/cluster"
	"github.com/twitter/fanout/common/log/hooks"
	"github.com/twitter/fanout/common/stats"
	"github.com/twitter/fanout/scheduler/domain"
	"github.com/twitter/fanout/scheduler/executor"
)

// Used to get proper logging from tests...
func init() {
	if loglevel := os.Getenv("FANOUT_LOGLEVEL"); loglevel != "" {
		level, err := log.ParseLevel(loglevel)
		if err != nil {
			log.Error(err)
			return
		}
		log.SetLevel(level)
		log.AddHook(hooks.NewContextHook())
	} else {
		log.SetLevel(log.ErrorLevel)
	}
}

var testCommand = domain.Command{Transport: "ssh", Runner: "run-tests"}

func testConfig() SchedulerConfig {
	cfg := DefaultSchedulerConfig()
	cfg.CommandTimeout = 10 * time.Millisecond
	cfg.LockTimeout = time.Second
	return cfg
}

type testRun struct {
	state    *RunState
	exec     *executor.FakeExecutor
	fetcher  *cluster.FakeFetcher
	registry stats.StatsRegistry
	runner   *JobRunner
	sched    *PassScheduler
	driver   *Driver
}

// newTestRun assigns targets round robin over hosts, the way setup does.
func newTestRun(config SchedulerConfig, hosts []string, targets ...string) *testRun {
	tr := &testRun{
		state:    NewRunState(),
		exec:     executor.NewFakeExecutor(),
		fetcher:  cluster.NewFakeFetcher(hosts...),
		registry: stats.NewFinagleStatsRegistry(),
	}
	stat := stats.NewCustomStatsReceiver(tr.registry)
	tr.state.AddNodes(hosts...)
	for i, t := range targets {
		tr.state.AddJobs(domain.NewJob(i, hosts[i%len(hosts)], testCommand.WithTarget(t)))
	}
	rebalancer := NewRebalancer(tr.fetcher, config.RebalancePolicy, stat)
	tr.runner = NewJobRunner(tr.state, tr.exec, rebalancer, config, stat)
	tr.sched = NewPassScheduler(tr.state, tr.runner, config, stat)
	tr.driver = NewDriver(tr.state, tr.sched, config, stat)
	return tr
}

func (tr *testRun) job(id int) *domain.Job {
	res := tr.state.Jobs.Get(id, time.Second)
	if !res.Found() {
		panic(fmt.Sprintf("job %d: %v", id, res.Err()))
	}
	return res.Value
}

func targets(n int) []string {
	t := []string{}
	for i := 0; i < n; i++ {
		t = append(t, fmt.Sprintf("case_%c", 'a'+i))
	}
	return t
}

func hosts(n int) []string {
	h := []string{}
	for i := 0; i < n; i++ {
		h = append(h, fmt.Sprintf("host%c", 'A'+i))
	}
	return h
}
