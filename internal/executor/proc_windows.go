//go:build windows

package executor

import "os/exec"

// Process groups work differently on windows; CommandContext's own kill
// of the direct child is the best available behavior there.
func setProcGroup(cmd *exec.Cmd) {}

func killProcGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
