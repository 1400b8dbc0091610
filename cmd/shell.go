// Package cmd is the seam a desktop shell calls into: it starts the Python
// backend when the window opens, stops it when the window closes, and answers
// the commands the frontend invokes.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/aminech33/newmars/scanner"
	"github.com/aminech33/newmars/supervisor"
)

// WindowEvent is a lifecycle event reported by the shell's main window.
type WindowEvent int

const (
	Focused WindowEvent = iota
	Resized
	Moved
	CloseRequested
	Destroyed
)

func (e WindowEvent) String() string {
	switch e {
	case Focused:
		return "focused"
	case Resized:
		return "resized"
	case Moved:
		return "moved"
	case CloseRequested:
		return "close-requested"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("window-event(%d)", int(e))
	}
}

// BackendStatus is the reply to the backend_status command.
type BackendStatus struct {
	Running bool `json:"running"`
	PID     int  `json:"pid"`
}

// analyzeArgs accepts both spellings the frontend has used for the project root.
type analyzeArgs struct {
	BasePath      string `json:"basePath"`
	SnakeBasePath string `json:"base_path"`
}

func (a analyzeArgs) path() string {
	if a.BasePath != "" {
		return a.BasePath
	}
	return a.SnakeBasePath
}

type handler func(s *Shell, args []byte) (any, error)

var commands = map[string]handler{
	"analyze_codebase": invokeAnalyze,
	"backend_status":   invokeBackendStatus,
}

// Shell ties the backend's lifetime to the main window and routes invoked commands.
type Shell struct {
	backend   *supervisor.Supervisor
	log       io.Writer
	scanOpts  []scanner.Option
	setupOnce sync.Once
}

// NewShell returns a shell that supervises backend. Progress lines go to log
// when it is non-nil; scanOpts are passed to every analyze_codebase call.
func NewShell(backend *supervisor.Supervisor, log io.Writer, scanOpts ...scanner.Option) *Shell {
	return &Shell{backend: backend, log: log, scanOpts: scanOpts}
}

// Setup starts the backend. It runs once per shell; a backend that fails to
// start is logged and the shell keeps running without it.
func (s *Shell) Setup() {
	s.setupOnce.Do(func() {
		if !s.backend.Start() {
			s.logf("Continuing without backend")
		}
	})
}

// HandleWindowEvent stops the backend when the window asks to close.
func (s *Shell) HandleWindowEvent(e WindowEvent) {
	if e != CloseRequested {
		return
	}
	s.logf("Window %s, stopping backend", e)
	s.backend.Stop()
}

// Invoke runs the named command with its JSON-encoded arguments.
func (s *Shell) Invoke(command string, args []byte) (any, error) {
	h, ok := commands[command]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s\nAvailable: %s", command, strings.Join(Commands(), ", "))
	}
	return h(s, args)
}

// Commands lists the command names Invoke accepts, sorted.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run sets up the shell and blocks until ctx is cancelled or the process is
// interrupted, then handles that as a close request.
func (s *Shell) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.Setup()
	<-ctx.Done()
	s.HandleWindowEvent(CloseRequested)
	return nil
}

func invokeAnalyze(s *Shell, args []byte) (any, error) {
	var a analyzeArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("invalid arguments for analyze_codebase: %w", err)
		}
	}
	result, err := scanner.Analyze(a.path(), s.scanOpts...)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func invokeBackendStatus(s *Shell, _ []byte) (any, error) {
	return BackendStatus{Running: s.backend.Running(), PID: s.backend.PID()}, nil
}

func (s *Shell) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	fmt.Fprintf(s.log, "[shell] "+format+"\n", args...)
}
