package server

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const (
	// Each node runs up to this many jobs at once.
	DefaultFanOutFactor = 3

	// A job moves to a new host when its failure count reaches exactly this value.
	DefaultRebalanceAt = 3

	// A job is abandoned once its failure count reaches this value.
	DefaultAbandonAt = 6

	// Hard ceiling on a single command.
	DefaultCommandTimeout = 300 * time.Second

	// How long to wait for SIGTERM before SIGKILL when a command is stopped.
	DefaultKillTimeout = 5 * time.Second

	DefaultMaxPasses = 10

	// Bound on acquiring a registry lock for a timed read.
	DefaultLockTimeout = 10 * time.Second
)

// RebalancePolicy picks one host among those a job hasn't used yet.
type RebalancePolicy string

const (
	// First unused host in hostname order.
	RebalanceFirst RebalancePolicy = "first"
	// Uniformly random unused host.
	RebalanceRandom RebalancePolicy = "random"
)

// SchedulerConfig holds the parameters of a run.
//
// RetireAbandoned - if true, jobs at or above AbandonAt failures are no longer
// submitted. They stay incomplete either way.
//
// CountTimeoutsAsFailures - if true, a timed out command increments the job's
// failure count and can trigger rebalancing or abandonment like any other
// failure. By default timeouts are retried without counting.
//
// StartRate, StartBurst - optional limit on how many commands start per second
// across the worker pool. Zero means unlimited.
type SchedulerConfig struct {
	FanOutFactor            int
	RebalanceAt             int
	AbandonAt               int
	CommandTimeout          time.Duration
	KillTimeout             time.Duration
	MaxPasses               int
	LockTimeout             time.Duration
	RetireAbandoned         bool
	CountTimeoutsAsFailures bool
	RebalancePolicy         RebalancePolicy
	StartRate               float64
	StartBurst              int
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		FanOutFactor:    DefaultFanOutFactor,
		RebalanceAt:     DefaultRebalanceAt,
		AbandonAt:       DefaultAbandonAt,
		CommandTimeout:  DefaultCommandTimeout,
		KillTimeout:     DefaultKillTimeout,
		MaxPasses:       DefaultMaxPasses,
		LockTimeout:     DefaultLockTimeout,
		RebalancePolicy: RebalanceFirst,
	}
}

func (c SchedulerConfig) String() string {
	return fmt.Sprintf("SchedulerConfig: FanOutFactor: %d, RebalanceAt: %d, AbandonAt: %d, CommandTimeout: %s, "+
		"KillTimeout: %s, MaxPasses: %d, LockTimeout: %s, RetireAbandoned: %t, CountTimeoutsAsFailures: %t, "+
		"RebalancePolicy: %s, StartRate: %g, StartBurst: %d",
		c.FanOutFactor, c.RebalanceAt, c.AbandonAt, c.CommandTimeout, c.KillTimeout, c.MaxPasses, c.LockTimeout,
		c.RetireAbandoned, c.CountTimeoutsAsFailures, c.RebalancePolicy, c.StartRate, c.StartBurst)
}

// Validate rejects settings the scheduler can't run with.
func (c SchedulerConfig) Validate() error {
	switch {
	case c.FanOutFactor < 1:
		return errors.Errorf("FanOutFactor must be at least 1, got %d", c.FanOutFactor)
	case c.RebalanceAt < 1:
		return errors.Errorf("RebalanceAt must be at least 1, got %d", c.RebalanceAt)
	case c.AbandonAt <= c.RebalanceAt:
		return errors.Errorf("AbandonAt (%d) must be greater than RebalanceAt (%d)", c.AbandonAt, c.RebalanceAt)
	case c.CommandTimeout < 0:
		return errors.Errorf("CommandTimeout can't be negative, got %s", c.CommandTimeout)
	case c.MaxPasses < 1:
		return errors.Errorf("MaxPasses must be at least 1, got %d", c.MaxPasses)
	case c.LockTimeout < 0:
		return errors.Errorf("LockTimeout can't be negative, got %s", c.LockTimeout)
	case c.StartRate < 0:
		return errors.Errorf("StartRate can't be negative, got %g", c.StartRate)
	}
	switch c.RebalancePolicy {
	case RebalanceFirst, RebalanceRandom, "":
	default:
		return errors.Errorf("unknown RebalancePolicy %q", c.RebalancePolicy)
	}
	return nil
}
