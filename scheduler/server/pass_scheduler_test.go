package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/fanout/common/stats"
	"github.com/twitter/fanout/scheduler/domain"
)

// funcRunner adapts a function to Runner.
type funcRunner func(ctx context.Context, jobID int) (domain.Outcome, string, error)

func (f funcRunner) Run(ctx context.Context, jobID int) (domain.Outcome, string, error) {
	return f(ctx, jobID)
}

func stateWith(numHosts, numJobs int) *RunState {
	s := NewRunState()
	s.AddNodes(hosts(numHosts)...)
	for i, t := range targets(numJobs) {
		s.AddJobs(domain.NewJob(i, hosts(numHosts)[i%numHosts], testCommand.WithTarget(t)))
	}
	return s
}

func TestPoolSize(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, 6, NewPassScheduler(stateWith(2, 0), nil, cfg, nil).PoolSize())
	cfg.FanOutFactor = 1
	assert.Equal(t, 2, NewPassScheduler(stateWith(2, 0), nil, cfg, nil).PoolSize())
	assert.Equal(t, 1, NewPassScheduler(NewRunState(), nil, cfg, nil).PoolSize())
}

func TestPendingJobs(t *testing.T) {
	cfg := testConfig()
	s := stateWith(1, 4)
	sched := NewPassScheduler(s, nil, cfg, nil)

	s.Jobs.Get(1, time.Second).Value.MarkCompleted(time.Second)
	s.Jobs.Get(3, time.Second).Value.Failures = cfg.AbandonAt
	assert.Equal(t, []int{0, 2, 3}, sched.PendingJobs())

	cfg.RetireAbandoned = true
	sched = NewPassScheduler(s, nil, cfg, nil)
	assert.Equal(t, []int{0, 2}, sched.PendingJobs())
}

func TestPassRespectsPoolSize(t *testing.T) {
	cfg := testConfig()
	cfg.FanOutFactor = 2
	s := stateWith(2, 20)

	var running, maxRunning int32
	runner := funcRunner(func(ctx context.Context, jobID int) (domain.Outcome, string, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			m := atomic.LoadInt32(&maxRunning)
			if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return domain.SucceededOutcome(), "ok", nil
	})

	res := NewPassScheduler(s, runner, cfg, nil).RunPass(context.Background(), 1)
	assert.Equal(t, 20, res.Submitted)
	assert.Equal(t, 4, res.PoolSize)
	assert.Equal(t, 20, res.Outcomes[domain.Succeeded])
	assert.LessOrEqual(t, atomic.LoadInt32(&maxRunning), int32(4))
	assert.Equal(t, int32(0), atomic.LoadInt32(&running), "pass returns only after every task finished")
}

func TestPassSubmitsEachJobOnce(t *testing.T) {
	s := stateWith(3, 9)
	var mu sync.Mutex
	seen := map[int]int{}
	runner := funcRunner(func(ctx context.Context, jobID int) (domain.Outcome, string, error) {
		mu.Lock()
		seen[jobID]++
		mu.Unlock()
		return domain.RetryableOutcome(1), "", nil
	})
	NewPassScheduler(s, runner, testConfig(), nil).RunPass(context.Background(), 1)
	assert.Len(t, seen, 9)
	for id, n := range seen {
		assert.Equal(t, 1, n, "job %d", id)
	}
}

func TestPassSurvivesFailingTasks(t *testing.T) {
	reg := stats.NewFinagleStatsRegistry()
	s := stateWith(1, 5)
	runner := funcRunner(func(ctx context.Context, jobID int) (domain.Outcome, string, error) {
		switch jobID {
		case 1:
			panic("boom")
		case 3:
			return domain.Outcome{}, "", errors.New("plumbing")
		}
		time.Sleep(time.Millisecond)
		return domain.SucceededOutcome(), "ok", nil
	})

	res := NewPassScheduler(s, runner, testConfig(), stats.NewCustomStatsReceiver(reg)).RunPass(context.Background(), 1)
	assert.Equal(t, 5, res.Submitted)
	assert.Equal(t, 3, res.Outcomes[domain.Succeeded])
	assert.Equal(t, 2, res.Errors)

	stats.VerifyStats("failingTasks", reg, t, map[string]stats.Rule{
		stats.SchedTaskErrorCounter: {Checker: stats.Int64EqTest, Value: 2},
		stats.SchedTaskPanicCounter: {Checker: stats.Int64EqTest, Value: 1},
		stats.SchedPoolSizeGauge:    {Checker: stats.Int64EqTest, Value: 3},
		stats.SchedPendingJobsGauge: {Checker: stats.Int64EqTest, Value: 5},
	})
}

func TestPassCancelled(t *testing.T) {
	s := stateWith(1, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int32
	runner := funcRunner(func(ctx context.Context, jobID int) (domain.Outcome, string, error) {
		atomic.AddInt32(&calls, 1)
		return domain.SucceededOutcome(), "", nil
	})
	res := NewPassScheduler(s, runner, testConfig(), nil).RunPass(ctx, 1)
	assert.Equal(t, 3, res.Errors)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestPassStartRate(t *testing.T) {
	cfg := testConfig()
	cfg.StartRate = 50
	cfg.StartBurst = 1
	s := stateWith(4, 6)
	runner := funcRunner(func(ctx context.Context, jobID int) (domain.Outcome, string, error) {
		return domain.SucceededOutcome(), "", nil
	})
	start := time.Now()
	res := NewPassScheduler(s, runner, cfg, nil).RunPass(context.Background(), 1)
	require.Equal(t, 6, res.Outcomes[domain.Succeeded])
	// 6 starts at 50/s with a burst of 1 need at least 5 intervals of 20ms.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
