//go:build unix

package solverclient

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts the solver in its own process group and kills the
// whole group on cancellation, so helpers the solver forked die with it
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
