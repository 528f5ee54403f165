//go:build unix

package ff

import (
	"os/exec"
	"syscall"
	"time"
)

func setupSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// killProcessGroup terminates the solver and everything it spawned.
func killProcessGroup(cmd *exec.Cmd, grace time.Duration) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	time.Sleep(grace)
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
