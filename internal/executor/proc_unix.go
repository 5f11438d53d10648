//go:build unix

package executor

import (
	"os/exec"
	"syscall"
)

// setProcGroup places the child in its own process group so that a
// timeout kill reaches the whole tree, not just the direct child.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcGroup forcibly terminates the child's entire process group.
func killProcGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
