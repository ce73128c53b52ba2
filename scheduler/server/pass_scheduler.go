package server

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/twitter/fanout/common/stats"
	"github.com/twitter/fanout/scheduler/domain"
)

// PassResult summarizes one scheduling pass.
type PassResult struct {
	Pass      int
	Submitted int
	PoolSize  int
	Outcomes  map[domain.OutcomeKind]int
	// Tasks that returned an error or panicked.
	Errors  int
	Elapsed time.Duration
}

func (p PassResult) String() string {
	return fmt.Sprintf("pass %d: submitted:%d pool:%d succeeded:%d failed:%d rebalanced:%d timedOut:%d abandoned:%d errors:%d elapsed:%s",
		p.Pass, p.Submitted, p.PoolSize, p.Outcomes[domain.Succeeded], p.Outcomes[domain.Retryable],
		p.Outcomes[domain.Rebalanced], p.Outcomes[domain.TimedOut], p.Outcomes[domain.Abandoned], p.Errors,
		p.Elapsed.Round(time.Millisecond))
}

type taskResult struct {
	jobID   int
	outcome domain.Outcome
	msg     string
	err     error
}

// PassScheduler runs every pending job once, concurrently, and returns when all
// of them have finished.
//
// Each pending job is submitted exactly once per pass, so a Runner never sees
// the same job concurrently. Passes must not overlap.
type PassScheduler struct {
	state   *RunState
	runner  Runner
	config  SchedulerConfig
	limiter *rate.Limiter
	stat    stats.StatsReceiver
}

func NewPassScheduler(state *RunState, runner Runner, config SchedulerConfig, stat stats.StatsReceiver) *PassScheduler {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	s := &PassScheduler{state: state, runner: runner, config: config, stat: stat}
	if config.StartRate > 0 {
		burst := config.StartBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(config.StartRate), burst)
	}
	return s
}

// PoolSize is the number of jobs allowed to run at once: nodes times the fan-out factor.
func (s *PassScheduler) PoolSize() int {
	size := s.state.Nodes.Len() * s.config.FanOutFactor
	if size < 1 {
		size = 1
	}
	return size
}

// PendingJobs returns, in ID order, the jobs the next pass will submit.
func (s *PassScheduler) PendingJobs() []int {
	ids := []int{}
	for _, e := range s.state.Jobs.Items() {
		job := e.Value
		if job.Completed {
			continue
		}
		if s.config.RetireAbandoned && job.Abandoned(s.config.AbandonAt) {
			continue
		}
		ids = append(ids, e.Key)
	}
	sort.Ints(ids)
	return ids
}

// RunPass runs one pass. Results are logged in completion order. A task that
// fails or panics is logged and counted but never stops its siblings.
func (s *PassScheduler) RunPass(ctx context.Context, pass int) PassResult {
	start := stats.Time.Now()
	pending := s.PendingJobs()
	result := PassResult{
		Pass:      pass,
		Submitted: len(pending),
		PoolSize:  s.PoolSize(),
		Outcomes:  map[domain.OutcomeKind]int{},
	}
	s.stat.Gauge(stats.SchedPoolSizeGauge).Update(int64(result.PoolSize))
	s.stat.Gauge(stats.SchedPendingJobsGauge).Update(int64(len(pending)))
	log.WithFields(log.Fields{
		"pass":     pass,
		"pending":  len(pending),
		"poolSize": result.PoolSize,
	}).Info("starting pass")

	results := make(chan taskResult, len(pending))
	go func() {
		var g errgroup.Group
		g.SetLimit(result.PoolSize)
		for _, id := range pending {
			id := id
			g.Go(func() error {
				results <- s.runTask(ctx, id)
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	for tr := range results {
		if tr.err != nil {
			result.Errors++
			s.stat.Counter(stats.SchedTaskErrorCounter).Inc(1)
			log.WithFields(log.Fields{
				"pass":  pass,
				"jobID": tr.jobID,
				"err":   tr.err,
			}).Warn("job task failed")
		}
		if tr.outcome.Kind != domain.Pending {
			result.Outcomes[tr.outcome.Kind]++
			log.WithFields(log.Fields{
				"pass":    pass,
				"jobID":   tr.jobID,
				"rc":      tr.outcome.RC(),
				"outcome": tr.outcome.Kind,
			}).Info(tr.msg)
		}
	}

	result.Elapsed = stats.Time.Since(start)
	log.Info(result.String())
	return result
}

func (s *PassScheduler) runTask(ctx context.Context, jobID int) (tr taskResult) {
	tr.jobID = jobID
	defer func() {
		if r := recover(); r != nil {
			s.stat.Counter(stats.SchedTaskPanicCounter).Inc(1)
			tr.err = fmt.Errorf("panic running job %d: %v\n%s", jobID, r, debug.Stack())
		}
	}()
	if err := ctx.Err(); err != nil {
		tr.err = err
		return tr
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			tr.err = err
			return tr
		}
	}
	tr.outcome, tr.msg, tr.err = s.runner.Run(ctx, jobID)
	return tr
}
