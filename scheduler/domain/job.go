// Package domain provides the Job and Node definitions the scheduler works on,
// along with the return-code taxonomy and the tagged outcome of a job run.
package domain

import (
	"fmt"
	"time"
)

// Job is one test target bound to the host it currently runs on.
//
// A Job's fields are mutated without a lock. This is safe only because a job is
// submitted at most once per pass and passes never overlap; the pass scheduler
// guarantees both.
type Job struct {
	ID int
	// Host history, append-only and never empty. The last entry is the active host.
	Hosts     []string
	Command   Command
	Failures  int
	Completed bool
	RC        int
	Elapsed   time.Duration
	Outcome   Outcome
}

func NewJob(id int, host string, cmd Command) *Job {
	return &Job{
		ID:      id,
		Hosts:   []string{host},
		Command: cmd,
	}
}

func (j *Job) ActiveHost() string {
	return j.Hosts[len(j.Hosts)-1]
}

// GetCommand composes the invocation for the active host.
func (j *Job) GetCommand() string {
	return j.Command.Compose(j.ActiveHost())
}

// AddHost makes host the active host, keeping the previous ones in the history.
func (j *Job) AddHost(host string) {
	j.Hosts = append(j.Hosts, host)
}

// AddFailure increments the failure count and returns the new value.
func (j *Job) AddFailure() int {
	j.Failures++
	return j.Failures
}

// MarkCompleted records a successful run. Completion is never undone.
func (j *Job) MarkCompleted(elapsed time.Duration) {
	j.Completed = true
	j.RC = RCSuccess
	j.Elapsed = elapsed
	j.Outcome = SucceededOutcome()
}

// Record stores the outcome of a run that did not succeed.
func (j *Job) Record(o Outcome, elapsed time.Duration) {
	j.RC = o.RC()
	j.Elapsed = elapsed
	j.Outcome = o
}

// Rebalanced reports whether the job has ever moved off its initial host.
func (j *Job) Rebalanced() bool {
	return len(j.Hosts) > 1
}

// Abandoned reports whether the job has reached the given failure ceiling.
func (j *Job) Abandoned(ceiling int) bool {
	return !j.Completed && j.Failures >= ceiling
}

// Clone returns a deep copy, for handing to readers outside the owning pass.
func (j *Job) Clone() *Job {
	c := *j
	c.Hosts = append([]string(nil), j.Hosts...)
	c.Command = j.Command.WithTarget(j.Command.Target)
	return &c
}

func (j *Job) String() string {
	return fmt.Sprintf("job %d (%s) host:%s failures:%d rc:%d completed:%t",
		j.ID, j.Command.Target, j.ActiveHost(), j.Failures, j.RC, j.Completed)
}
