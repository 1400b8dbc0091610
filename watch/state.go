package watch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// staleAfter is how old state.json may get before the daemon is presumed gone.
// Foreground daemons refresh it well inside this window.
const staleAfter = 30 * time.Second

// ErrNotRunning is returned by Stop when no live daemon owns the project.
var ErrNotRunning = errors.New("no watch daemon running")

func statePath(root string) string { return filepath.Join(root, StateDir, "state.json") }
func pidPath(root string) string { return filepath.Join(root, StateDir, "watch.pid") }

// ReadState returns the daemon's last snapshot, or nil when there is none or
// it is older than staleAfter.
func ReadState(root string) *State {
	data, err := os.ReadFile(statePath(root))
	if err != nil {
		return nil
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil
	}
	if time.Since(state.UpdatedAt) > staleAfter {
		return nil
	}
	return &state
}

// WritePID records the current process as the project's daemon.
func WritePID(root string) error {
	if err := os.MkdirAll(filepath.Join(root, StateDir), 0755); err != nil {
		return err
	}
	return os.WriteFile(pidPath(root), []byte(strconv.Itoa(os.Getpid())), 0644)
}

// ReadPID returns the PID recorded by WritePID.
func ReadPID(root string) (int, error) {
	data, err := os.ReadFile(pidPath(root))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID file %s: %q", pidPath(root), strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// RemovePID removes the PID file
func RemovePID(root string) {
	os.Remove(pidPath(root))
}

// IsRunning reports whether a daemon is alive for root: the recorded process
// exists and it has refreshed state.json within staleAfter. A PID that was
// reused by an unrelated process fails the second check.
func IsRunning(root string) bool {
	pid, err := ReadPID(root)
	if err != nil || !processAlive(pid) {
		return false
	}
	return ReadState(root) != nil
}

// Stop sends SIGTERM to the recorded daemon and removes the PID file.
// A PID file left behind by a dead process is cleaned up and reported as ErrNotRunning.
func Stop(root string) error {
	pid, err := ReadPID(root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	if !processAlive(pid) {
		RemovePID(root)
		return fmt.Errorf("%w: stale PID %d", ErrNotRunning, pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal daemon %d: %w", pid, err)
	}
	RemovePID(root)
	return nil
}

// processAlive sends signal 0; on Unix FindProcess always succeeds, so the
// signal is the real check.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
