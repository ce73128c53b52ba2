//go:build !unix

package exec

import (
	"os"
	osexec "os/exec"
)

func setProcessGroup(cmd *osexec.Cmd) {}

func terminate(p *os.Process, group bool) error { return p.Kill() }
func kill(p *os.Process, group bool) error      { return p.Kill() }
