package process

import "os/exec"

// GroupCancel returns an exec.Cmd Cancel hook that kills the whole process
// group started by cmd. Use with SetProcessGroup.
func GroupCancel(cmd *exec.Cmd) func() error {
	return func() error {
		if cmd.Process == nil {
			return nil
		}
		KillProcessGroup(cmd.Process.Pid)
		return cmd.Process.Kill()
	}
}
