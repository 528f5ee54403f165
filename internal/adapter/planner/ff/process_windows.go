//go:build windows

package ff

import (
	"fmt"
	"os/exec"
	"time"
)

func setupSysProcAttr(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd, _ time.Duration) {
	if cmd.Process == nil {
		return
	}
	_ = exec.Command("taskkill", "/F", "/T", "/PID", fmt.Sprintf("%d", cmd.Process.Pid)).Run()
}
