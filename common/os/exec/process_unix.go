//go:build unix

package exec

import (
	"os"
	osexec "os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func setProcessGroup(cmd *osexec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// signalGroup delivers sig to the whole process group led by p when group is
// set, otherwise to p alone.
func signalGroup(p *os.Process, sig syscall.Signal, group bool) error {
	if group {
		return unix.Kill(-p.Pid, sig)
	}
	return unix.Kill(p.Pid, sig)
}

func terminate(p *os.Process, group bool) error { return signalGroup(p, unix.SIGTERM, group) }
func kill(p *os.Process, group bool) error      { return signalGroup(p, unix.SIGKILL, group) }
