// Package executor runs a composed job command and reports how it ended.
// The scheduler only needs the exit code and whether the hard timeout fired.
package executor

//go:generate mockgen -source=executor.go -package=executor -destination=executor_mock.go

import (
	"context"
	"fmt"
	"time"
)

// Result of a single command execution.
type Result struct {
	Stdout []byte
	Stderr []byte
	// Exit code of the command. Meaningless if TimedOut or Err is set.
	RC int
	// The command exceeded its timeout and was killed.
	TimedOut bool
	// The command could not be run at all (ex: empty command, binary not found).
	Err error
}

func (r Result) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("error: %v", r.Err)
	case r.TimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("rc=%d", r.RC)
	}
}

// Executor runs job commands. Implementations must be safe for concurrent use.
type Executor interface {
	// Execute runs command and blocks until it exits, timeout elapses (if > 0),
	// or ctx is done. Business failures are reported through Result.RC.
	Execute(ctx context.Context, command string, timeout time.Duration) Result
}
