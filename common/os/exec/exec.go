// Package exec wraps os/exec behind small interfaces so job commands can be
// started in their own process group, bounded by a timeout, and faked in tests.
package exec

import (
	"io"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"
)

type (
	// OsExec creates Cmds. Injectable so tests can substitute commands.
	OsExec interface {
		Command(name string, args ...string) Cmd
	}

	// Cmd is the subset of os/exec.Cmd used to run a job command.
	Cmd interface {
		Args() []string
		Start() error
		// Wait for a started command; returns an *osexec.ExitError on non-zero exit.
		Wait() error
		SetStdout(io.Writer)
		SetStderr(io.Writer)
		// Run the process as leader of a new process group so a signal reaches
		// everything it spawned. Must be called before Start.
		SetProcessGroup()
		Process() *os.Process
		ProcessState() *os.ProcessState
		String() string
	}

	defaultOsExec struct{}

	cmdAdapter struct {
		cmd   *osexec.Cmd
		group bool
	}
)

var _ Cmd = &cmdAdapter{}

func NewOsExec() OsExec {
	return &defaultOsExec{}
}

func (d *defaultOsExec) Command(name string, args ...string) Cmd {
	return &cmdAdapter{cmd: osexec.Command(name, args...)}
}

func (c *cmdAdapter) Start() error                   { return c.cmd.Start() }
func (c *cmdAdapter) Wait() error                    { return c.cmd.Wait() }
func (c *cmdAdapter) SetStdout(w io.Writer)          { c.cmd.Stdout = w }
func (c *cmdAdapter) SetStderr(w io.Writer)          { c.cmd.Stderr = w }
func (c *cmdAdapter) String() string                 { return c.cmd.String() }
func (c *cmdAdapter) Process() *os.Process           { return c.cmd.Process }
func (c *cmdAdapter) ProcessState() *os.ProcessState { return c.cmd.ProcessState }

func (c *cmdAdapter) SetProcessGroup() {
	c.group = true
	setProcessGroup(c.cmd)
}

// Args returns a copy so callers cannot modify the command.
func (c *cmdAdapter) Args() []string {
	return append([]string(nil), c.cmd.Args...)
}

// ExitCode extracts the exit status from a finished process.
// Returns -1 when the process did not exit normally (ex: killed by a signal).
func ExitCode(ps *os.ProcessState) int {
	if ps == nil {
		return -1
	}
	return ps.ExitCode()
}

// truncateCmd shortens the executable path for log output.
func truncateCmd(cmd Cmd) string {
	args := cmd.Args()
	if len(args) > 0 {
		args[0] = filepath.Base(args[0])
	}
	return strings.Join(args, " ")
}
