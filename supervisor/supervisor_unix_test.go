//go:build !windows

package supervisor

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shellBackend writes a main.py that /bin/sh can run and returns a supervisor for it.
func shellBackend(t *testing.T, log io.Writer) (*Supervisor, string) {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	root := t.TempDir()
	backend := filepath.Join(root, "backend")
	require.NoError(t, os.MkdirAll(backend, 0755))
	script := "pwd > started.txt\nsleep 30\n"
	require.NoError(t, os.WriteFile(filepath.Join(backend, EntryPoint), []byte(script), 0644))

	s := New(devLayout(t, root),
		WithInterpreter(sh),
		WithLogger(log),
		WithOutput(io.Discard, io.Discard),
	)
	return s, backend
}

func processAlive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}

func TestStartStop(t *testing.T) {
	var log bytes.Buffer
	s, backend := shellBackend(t, &log)

	require.True(t, s.Start())
	assert.True(t, s.Running())
	pid := s.PID()
	require.NotZero(t, pid)

	// the backend runs with the backend directory as its working directory
	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(backend, "started.txt"))
		if err != nil {
			return false
		}
		got, _ := filepath.EvalSymlinks(string(bytes.TrimSpace(data)))
		want, _ := filepath.EvalSymlinks(backend)
		return got == want
	}, 5*time.Second, 20*time.Millisecond)

	// a second Start keeps the same process
	assert.True(t, s.Start())
	assert.Equal(t, pid, s.PID())

	s.Stop()
	assert.False(t, s.Running())
	assert.Equal(t, 0, s.PID())
	assert.Eventually(t, func() bool { return !processAlive(pid) }, 5*time.Second, 20*time.Millisecond)

	s.Stop()
	assert.False(t, s.Running())
	assert.Contains(t, log.String(), "Backend started")
	assert.Contains(t, log.String(), "Backend stopped")
}

func TestConcurrentStop(t *testing.T) {
	s, _ := shellBackend(t, io.Discard)
	require.True(t, s.Start())
	pid := s.PID()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Stop()
		}()
	}
	wg.Wait()

	assert.False(t, s.Running())
	assert.Eventually(t, func() bool { return !processAlive(pid) }, 5*time.Second, 20*time.Millisecond)
}
