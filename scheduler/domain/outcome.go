package domain

import (
	"fmt"
)

// Return codes reported by the remote test runner (0-5) and the codes the
// scheduler itself assigns (7-9).
const (
	RCSuccess          = 0
	RCTestsFailed      = 1
	RCInterrupted      = 2
	RCInternalError    = 3
	RCUsageError       = 4
	RCNoTestsCollected = 5

	RCRebalanced = 7
	RCAbandoned  = 8
	RCTimedOut   = 9
)

// OutcomeKind tags the result of running a job once.
type OutcomeKind int

const (
	// Not yet run in this process.
	Pending OutcomeKind = iota
	Succeeded
	// Ran and failed with a runner return code; Outcome.Code carries it.
	Retryable
	// Failed and was moved to a new host.
	Rebalanced
	// Reached the abandonment ceiling.
	Abandoned
	TimedOut
)

var outcomeNames = map[OutcomeKind]string{
	Pending:    "pending",
	Succeeded:  "succeeded",
	Retryable:  "retryable",
	Rebalanced: "rebalanced",
	Abandoned:  "abandoned",
	TimedOut:   "timed_out",
}

func (k OutcomeKind) String() string {
	if s, ok := outcomeNames[k]; ok {
		return s
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome of one execution of a job.
type Outcome struct {
	Kind OutcomeKind
	// Runner return code, only set for Retryable.
	Code int
}

func SucceededOutcome() Outcome         { return Outcome{Kind: Succeeded} }
func RetryableOutcome(code int) Outcome { return Outcome{Kind: Retryable, Code: code} }
func RebalancedOutcome() Outcome        { return Outcome{Kind: Rebalanced} }
func AbandonedOutcome() Outcome         { return Outcome{Kind: Abandoned} }
func TimedOutOutcome() Outcome          { return Outcome{Kind: TimedOut} }

// RC maps the outcome back onto the numeric return-code taxonomy.
func (o Outcome) RC() int {
	switch o.Kind {
	case Succeeded, Pending:
		return RCSuccess
	case Retryable:
		return o.Code
	case Rebalanced:
		return RCRebalanced
	case Abandoned:
		return RCAbandoned
	case TimedOut:
		return RCTimedOut
	}
	return RCInternalError
}

// Terminal reports whether the scheduler expects nothing more from the job.
func (o Outcome) Terminal() bool {
	return o.Kind == Succeeded || o.Kind == Abandoned
}

func (o Outcome) String() string {
	if o.Kind == Retryable {
		return fmt.Sprintf("%s(rc=%d: %s)", o.Kind, o.Code, DescribeRC(o.Code))
	}
	return o.Kind.String()
}

// DescribeRC returns a short human-readable meaning for a return code.
func DescribeRC(rc int) string {
	switch rc {
	case RCSuccess:
		return "succeeded"
	case RCTestsFailed:
		return "some tests failed"
	case RCInterrupted:
		return "execution interrupted"
	case RCInternalError:
		return "internal error"
	case RCUsageError:
		return "usage error"
	case RCNoTestsCollected:
		return "no tests collected"
	case RCRebalanced:
		return "rebalanced to new host"
	case RCAbandoned:
		return "abandoned"
	case RCTimedOut:
		return "timed out"
	}
	return "unknown return code"
}
