//go:build unix

package pdf

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup makes cancellation kill the whole process group, so helpers spawned
// by the tool do not outlive the deadline.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
