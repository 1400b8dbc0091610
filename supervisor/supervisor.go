// Package supervisor runs the companion Python backend for the lifetime of the
// desktop shell: started once at setup, killed when the window closes.
package supervisor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// Supervisor owns at most one backend process. All access to the process
// handle goes through mu.
type Supervisor struct {
	mu  sync.Mutex
	cmd *exec.Cmd

	layout      Layout
	interpreter string
	entryPoint  string
	exists      func(string) bool
	log         io.Writer
	stdout      io.Writer
	stderr      io.Writer
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithInterpreter overrides the per-OS interpreter name.
func WithInterpreter(name string) Option {
	return func(s *Supervisor) {
		if name != "" {
			s.interpreter = name
		}
	}
}

// WithEntryPoint overrides the backend script name.
func WithEntryPoint(name string) Option {
	return func(s *Supervisor) {
		if name != "" {
			s.entryPoint = name
		}
	}
}

// WithLogger sets where diagnostics go (default os.Stderr).
func WithLogger(w io.Writer) Option {
	return func(s *Supervisor) { s.log = w }
}

// WithOutput sets the backend's stdout and stderr (default: inherited).
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *Supervisor) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

// WithStat replaces the filesystem existence check.
func WithStat(exists func(string) bool) Option {
	return func(s *Supervisor) { s.exists = exists }
}

// New returns a supervisor with no running process.
func New(layout Layout, opts ...Option) *Supervisor {
	s := &Supervisor{
		layout:      layout,
		interpreter: Interpreter(layout.GOOS),
		entryPoint:  EntryPoint,
		exists:      pathExists,
		log:         os.Stderr,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BackendDir returns the directory Start would launch from.
func (s *Supervisor) BackendDir() string {
	return s.layout.BackendDir(s.exists)
}

// Start launches the backend if its entry point exists. Failures are only
// logged; the return value reports whether a process is now held.
func (s *Supervisor) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return true
	}

	dir := s.layout.BackendDir(s.exists)
	script := filepath.Join(dir, s.entryPoint)
	if !s.exists(script) {
		s.logf("Backend entry point not found: %s", script)
		return false
	}

	s.logf("Starting backend: %s %s (dir %s)", s.interpreter, s.entryPoint, dir)

	cmd := exec.Command(s.interpreter, s.entryPoint)
	cmd.Dir = dir
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		s.logf("Failed to start backend: %v", err)
		return false
	}

	s.cmd = cmd
	s.logf("Backend started (pid %d)", cmd.Process.Pid)
	return true
}

// Stop kills the backend if one is held and forgets it. It does not wait for
// the process to exit. Calling Stop with nothing running is a no-op.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return
	}
	cmd := s.cmd
	s.cmd = nil

	if err := killProcess(cmd.Process); err != nil {
		s.logf("Failed to kill backend (pid %d): %v", cmd.Process.Pid, err)
	} else {
		s.logf("Backend stopped (pid %d)", cmd.Process.Pid)
	}

	// reap in the background so the child does not linger as a zombie
	go cmd.Wait()
}

// Running reports whether a backend handle is held. A backend that exited on
// its own is still reported as running until Stop.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil
}

// PID returns the backend's process id, or 0 when none is held.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

func (s *Supervisor) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	fmt.Fprintf(s.log, "[backend] "+format+"\n", args...)
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
