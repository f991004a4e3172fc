//go:build !windows

package launcher

import (
	"os/exec"
	"syscall"
)

// detach starts the process in a new session so it survives the caller.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
