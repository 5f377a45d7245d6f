//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// SetProcessGroup starts cmd in its own process group so KillProcessGroup
// reaches every child it spawns.
func SetProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) {
	// Best-effort; the caller's own Process.Kill remains the fallback.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
