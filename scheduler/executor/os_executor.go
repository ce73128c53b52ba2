package executor

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/shlex"
	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/fanout/common/os/exec"
	"github.com/twitter/fanout/scheduler/domain"
)

const DefaultKillTimeout = 5 * time.Second

// OsExecutor runs commands as local processes. A command is split shell-style,
// so a transport like "ssh host" is just the leading words of the command.
type OsExecutor struct {
	ex          exec.OsExec
	killTimeout time.Duration
	// Combined output of every command is streamed here, if set.
	output io.Writer
}

func NewOsExecutor(killTimeout time.Duration, output io.Writer) *OsExecutor {
	if killTimeout <= 0 {
		killTimeout = DefaultKillTimeout
	}
	return &OsExecutor{ex: exec.NewOsExec(), killTimeout: killTimeout, output: output}
}

func (e *OsExecutor) Execute(ctx context.Context, command string, timeout time.Duration) Result {
	args, err := shlex.Split(command)
	if err != nil {
		return Result{RC: -1, Err: pkgerrors.Wrapf(err, "cannot parse command %q", command)}
	}
	if len(args) == 0 {
		return Result{RC: -1, Err: errors.New("empty command")}
	}

	cmd := e.ex.Command(args[0], args[1:]...)
	rr := exec.RunKillableCommand(cmd, ctx.Done(), e.killTimeout, e.output, timeout)
	res := Result{Stdout: rr.Stdout, Stderr: rr.Stderr, RC: exec.ExitCode(rr.ProcessState)}

	switch {
	case rr.TimedOut():
		res.TimedOut = true
	case rr.ProcessState == nil:
		res.Err = pkgerrors.Wrapf(rr.Error, "cannot start %q", args[0])
	case errors.Is(rr.Error, exec.KilledError), res.RC < 0:
		// Stopped by cancellation or a signal from elsewhere.
		res.RC = domain.RCInterrupted
	}
	log.WithFields(log.Fields{
		"command":  command,
		"rc":       res.RC,
		"timedOut": res.TimedOut,
		"duration": rr.Duration,
	}).Debug("command finished")
	return res
}

var _ Executor = (*OsExecutor)(nil)
