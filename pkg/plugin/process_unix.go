//go:build !windows

package plugin

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Plugins run in their own process group so that killing one takes its
// children with it.

func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcess(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if unix.Kill(-cmd.Process.Pid, unix.SIGKILL) != nil {
		cmd.Process.Kill()
	}
}
