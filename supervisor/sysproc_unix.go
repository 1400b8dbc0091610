//go:build !windows

package supervisor

import (
	"os"
	"os/exec"
	"syscall"
)

// setSysProcAttr puts the backend in its own process group so that Stop can
// take down anything the interpreter spawned.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcess sends SIGKILL to the backend's process group, falling back to the
// process itself.
func killProcess(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err == nil {
		return nil
	}
	return p.Kill()
}
