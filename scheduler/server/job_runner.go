package server

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/fanout/common/stats"
	"github.com/twitter/fanout/registry"
	"github.com/twitter/fanout/scheduler/domain"
	"github.com/twitter/fanout/scheduler/executor"
)

// Runner executes one job once and decides what happens to it next.
//
// Business failures are reported through the returned Outcome. An error means
// the run could not be carried out or its result not fully applied (a registry
// lock timeout, an unknown job, no host to rebalance to, a command that could
// not be started or was interrupted by cancellation).
type Runner interface {
	Run(ctx context.Context, jobID int) (domain.Outcome, string, error)
}

// JobRunner is the per-job state machine:
//
//	PENDING -> COMPLETED | REBALANCED | FAILURE_ADVISORY | TIMED_OUT | ABANDONED
//
// COMPLETED and ABANDONED are terminal for scheduling purposes, everything else
// goes back to PENDING for the next pass.
//
// A job's fields are mutated here without a lock. Callers must not run the same
// job twice concurrently; PassScheduler guarantees that.
type JobRunner struct {
	state      *RunState
	exec       executor.Executor
	rebalancer *Rebalancer
	config     SchedulerConfig
	stat       stats.StatsReceiver
}

func NewJobRunner(
	state *RunState,
	exec executor.Executor,
	rebalancer *Rebalancer,
	config SchedulerConfig,
	stat stats.StatsReceiver,
) *JobRunner {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &JobRunner{state: state, exec: exec, rebalancer: rebalancer, config: config, stat: stat}
}

func (r *JobRunner) Run(ctx context.Context, jobID int) (domain.Outcome, string, error) {
	res := r.state.Jobs.Get(jobID, r.config.LockTimeout)
	if !res.Found() {
		return domain.Outcome{}, "", errors.Wrapf(res.Err(), "looking up job %d", jobID)
	}
	job := res.Value
	host := job.ActiveHost()
	command := job.GetCommand()

	r.stat.Counter(stats.RunnerJobRunCounter).Inc(1)
	start := stats.Time.Now()
	result := r.exec.Execute(ctx, command, r.config.CommandTimeout)
	elapsed := stats.Time.Since(start)
	r.stat.Precision(time.Millisecond).Latency(stats.RunnerJobLatency_ms).Observe(elapsed)

	if result.Err != nil {
		return domain.Outcome{}, "", errors.Wrapf(result.Err, "running job %d on %s", jobID, host)
	}
	// A command stopped by cancellation says nothing about the job or the host.
	if ctx.Err() != nil && (result.TimedOut || result.RC != domain.RCSuccess) {
		return domain.Outcome{}, "", errors.Wrapf(ctx.Err(), "job %d on %s interrupted", jobID, host)
	}

	var outcome domain.Outcome
	var err error
	switch {
	case result.TimedOut:
		outcome = domain.TimedOutOutcome()
		if r.config.CountTimeoutsAsFailures {
			outcome, err = r.fail(job, outcome)
		}
		job.Record(outcome, elapsed)
	case result.RC == domain.RCSuccess:
		outcome = domain.SucceededOutcome()
		job.MarkCompleted(elapsed)
		r.state.Completed.Update(job.ID, job.Clone())
	default:
		outcome, err = r.fail(job, domain.RetryableOutcome(result.RC))
		job.Record(outcome, elapsed)
	}
	if outcome.Kind != domain.Succeeded {
		r.addNodeFailure(host)
	}
	r.countOutcome(outcome)

	msg := fmt.Sprintf("job %d (%s) on %s: %s in %s", job.ID, job.Command.Target, host, outcome, elapsed.Round(time.Millisecond))
	fields := log.Fields{
		"jobID":    job.ID,
		"host":     host,
		"rc":       outcome.RC(),
		"failures": job.Failures,
		"elapsed":  elapsed,
	}
	if err != nil {
		fields["err"] = err
	}
	log.WithFields(fields).Debug(msg)
	return outcome, msg, err
}

// fail counts a failure against the job and applies the abandonment and
// rebalancing thresholds to the new count. If rebalancing is impossible the
// job keeps the given outcome and the error is returned.
func (r *JobRunner) fail(job *domain.Job, outcome domain.Outcome) (domain.Outcome, error) {
	failures := job.AddFailure()
	switch {
	case failures >= r.config.AbandonAt:
		return domain.AbandonedOutcome(), nil
	case failures == r.config.RebalanceAt:
		if _, err := r.rebalancer.Rebalance(job); err != nil {
			return outcome, err
		}
		return domain.RebalancedOutcome(), nil
	}
	return outcome, nil
}

// addNodeFailure charges a failure to host. Hosts outside the node registry,
// ex: ones first seen by a rebalance, are only logged; the pool is fixed for
// the run.
func (r *JobRunner) addNodeFailure(host string) {
	status := r.state.Nodes.Modify(host, r.config.LockTimeout, func(n domain.Node) domain.Node {
		n.Failures++
		return n
	})
	switch status {
	case registry.TimedOut:
		log.WithFields(log.Fields{
			"host": host,
		}).Warn("timed out recording node failure")
	case registry.NotFound:
		log.WithFields(log.Fields{
			"host": host,
		}).Debug("failure on a host outside the node registry")
	}
}

func (r *JobRunner) countOutcome(o domain.Outcome) {
	var name string
	switch o.Kind {
	case domain.Succeeded:
		name = stats.RunnerJobSucceededCounter
	case domain.Retryable:
		name = stats.RunnerJobFailedCounter
	case domain.Rebalanced:
		name = stats.RunnerJobRebalancedCounter
	case domain.Abandoned:
		name = stats.RunnerJobAbandonedCounter
	case domain.TimedOut:
		name = stats.RunnerJobTimedOutCounter
	default:
		return
	}
	r.stat.Counter(name).Inc(1)
}

var _ Runner = (*JobRunner)(nil)
