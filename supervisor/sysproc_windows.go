//go:build windows

package supervisor

import (
	"os"
	"os/exec"
)

// setSysProcAttr is a no-op on Windows (Setpgid not available)
func setSysProcAttr(cmd *exec.Cmd) {
	// Windows doesn't support Setpgid
}

// killProcess terminates the backend process.
func killProcess(p *os.Process) error {
	return p.Kill()
}
