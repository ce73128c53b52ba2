package exec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const CmdSeparator = "--------------------------------------------------------------"

var (
	TimeoutError = errors.New("command timeout")
	KilledError  = errors.New("command killed by request")
)

// RunResult summarizes a finished command: its process state plus the full
// stdout and stderr contents.
type RunResult struct {
	// Nil when the command could not be started.
	ProcessState *os.ProcessState
	Stdout       []byte
	Stderr       []byte
	// Error from Start or Wait, or TimeoutError / KilledError.
	Error    error
	Duration time.Duration
}

func (rr RunResult) String() string {
	return fmt.Sprintf("Error:%v, ExitCode:%d, Stdout:%s, Stderr:%s", rr.Error, ExitCode(rr.ProcessState), rr.Stdout, rr.Stderr)
}

// TimedOut reports whether the command was stopped because it exceeded its timeout.
func (rr RunResult) TimedOut() bool {
	return errors.Is(rr.Error, TimeoutError)
}

// RunKillableCommand starts cmd in its own process group and waits for it.
// Output is captured and also streamed, combined, to streamLog.
//
// If timeout > 0 and the command runs longer, or if killCh is closed first, the
// group is sent SIGTERM and then SIGKILL after killTimeout. The result's Error
// is then TimeoutError or KilledError respectively.
func RunKillableCommand(
	cmd Cmd,
	killCh <-chan struct{},
	killTimeout time.Duration,
	streamLog io.Writer,
	timeout time.Duration,
) RunResult {
	var rr RunResult
	if streamLog == nil {
		streamLog = io.Discard
	}

	var outBuf, errBuf bytes.Buffer
	syncLog := &syncWriter{w: streamLog}
	cmd.SetStdout(io.MultiWriter(&outBuf, syncLog))
	cmd.SetStderr(io.MultiWriter(&errBuf, syncLog))
	cmd.SetProcessGroup()

	log.Debugf("Running Command: %s", cmd.String())
	syncLog.Write([]byte(fmt.Sprintf("\n%s\nRunning Command: %s\n", CmdSeparator, truncateCmd(cmd))))
	start := time.Now()
	if err := cmd.Start(); err != nil {
		rr.Error = err
		return rr
	}

	var waitErr error
	doneCh := make(chan struct{})
	go func() {
		waitErr = cmd.Wait()
		close(doneCh)
	}()

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	var stopErr error
	select {
	case <-doneCh:
		syncLog.Write([]byte(fmt.Sprintf("\nExited - ExitCode: %d\n%s\n", ExitCode(cmd.ProcessState()), CmdSeparator)))
	case <-timeoutCh:
		log.Infof("command timed out after %v, killing: %s", timeout, truncateCmd(cmd))
		termThenKill(cmd, killTimeout, doneCh)
		<-doneCh
		syncLog.Write([]byte(fmt.Sprintf("\nTimeout after %v\n%s\n", timeout, CmdSeparator)))
		stopErr = TimeoutError
	case <-killCh:
		log.Infof("received kill request for command: %s", truncateCmd(cmd))
		termThenKill(cmd, killTimeout, doneCh)
		<-doneCh
		syncLog.Write([]byte(fmt.Sprintf("\nTerminated by external request\n%s\n", CmdSeparator)))
		stopErr = KilledError
	}

	rr.Duration = time.Since(start)
	rr.ProcessState = cmd.ProcessState()
	rr.Stdout = outBuf.Bytes()
	rr.Stderr = errBuf.Bytes()
	rr.Error = waitErr
	if stopErr != nil {
		rr.Error = stopErr
	}
	return rr
}

// termThenKill sends SIGTERM to the command's process group, then SIGKILL if it
// has not exited after d. doneCh must be closed once Wait returns.
func termThenKill(cmd Cmd, d time.Duration, doneCh <-chan struct{}) {
	p := cmd.Process()
	if p == nil {
		return
	}
	group := inProcessGroup(cmd)
	if err := terminate(p, group); err != nil {
		log.Errorf("Failed to send SIGTERM to process %d: %s", p.Pid, err)
	}

	select {
	case <-doneCh:
	case <-time.After(d):
		log.Infof("process %d hasn't exited, sending SIGKILL", p.Pid)
		if err := kill(p, group); err != nil {
			log.Errorf("Failed to kill process %d: %s", p.Pid, err)
		}
	}
}

func inProcessGroup(cmd Cmd) bool {
	c, ok := cmd.(*cmdAdapter)
	return ok && c.group
}

// syncWriter serializes concurrent writes of stdout and stderr to one stream.
type syncWriter struct {
	w  io.Writer
	mu sync.Mutex
}

func (b *syncWriter) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.w.Write(p)
}
