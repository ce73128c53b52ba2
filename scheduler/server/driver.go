package server

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/fanout/common/stats"
)

// Driver runs passes until every job has completed or MaxPasses is reached.
// Hitting MaxPasses with incomplete jobs is a normal end of the run.
type Driver struct {
	state     *RunState
	scheduler *PassScheduler
	config    SchedulerConfig
	stat      stats.StatsReceiver
}

func NewDriver(state *RunState, scheduler *PassScheduler, config SchedulerConfig, stat stats.StatsReceiver) *Driver {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &Driver{state: state, scheduler: scheduler, config: config, stat: stat}
}

// Run loops over passes and returns the summary of the run. ctx is checked
// between passes; a cancelled run still returns a summary.
func (d *Driver) Run(ctx context.Context) *Summary {
	start := stats.Time.Now()
	passes := []PassResult{}
	interrupted := false

	d.stat.Gauge(stats.DriverJobsGauge).Update(int64(d.state.Jobs.Len()))
	d.stat.Gauge(stats.DriverNodesGauge).Update(int64(d.state.Nodes.Len()))

	for pass := 1; !d.state.Done() && pass <= d.config.MaxPasses; pass++ {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		if len(d.scheduler.PendingJobs()) == 0 {
			log.Info("no schedulable jobs left")
			break
		}

		res := d.scheduler.RunPass(ctx, pass)
		passes = append(passes, res)
		d.stat.Counter(stats.DriverPassCounter).Inc(1)
		d.stat.Precision(time.Millisecond).Latency(stats.DriverPassLatency_ms).Observe(res.Elapsed)
		d.stat.Gauge(stats.DriverCompletedJobsGauge).Update(int64(d.state.Completed.Len()))
	}
	if ctx.Err() != nil {
		interrupted = true
	}

	summary := Summarize(d.state, d.config, passes)
	summary.Interrupted = interrupted
	summary.Elapsed = stats.Time.Since(start)
	d.stat.Gauge(stats.DriverAbandonedJobsGauge).Update(int64(summary.Abandoned))

	log.WithFields(log.Fields{
		"passes":      len(passes),
		"total":       summary.Total,
		"succeeded":   summary.Succeeded,
		"abandoned":   summary.Abandoned,
		"interrupted": interrupted,
	}).Info("run finished")
	return summary
}
