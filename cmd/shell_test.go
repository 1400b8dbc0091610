package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/aminech33/newmars/scanner"
	"github.com/aminech33/newmars/supervisor"
)

// idleShell returns a shell whose backend has no entry point, so it never starts
func idleShell(t *testing.T, log *bytes.Buffer) *Shell {
	t.Helper()
	work := filepath.Join(t.TempDir(), "shell")
	if err := os.MkdirAll(work, 0755); err != nil {
		t.Fatal(err)
	}
	layout := supervisor.Layout{Mode: supervisor.Development, GOOS: runtime.GOOS, WorkDir: work}
	return NewShell(supervisor.New(layout, supervisor.WithLogger(log)), log)
}

func writeComponent(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(scanner.ComponentsPath(root), name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestInvokeRouting(t *testing.T) {
	var log bytes.Buffer
	s := idleShell(t, &log)

	_, err := s.Invoke("unknown_command", nil)
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("error should mention 'unknown command', got: %v", err)
	}
	if !strings.Contains(err.Error(), "Available:") {
		t.Errorf("error should list available commands, got: %v", err)
	}
	for _, name := range []string{"analyze_codebase", "backend_status"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should list %q as available command", name)
		}
	}
}

func TestInvokeAnalyze(t *testing.T) {
	root := t.TempDir()
	writeComponent(t, root, "Header.tsx", "import { useStore } from '../store'\n"+
		"export function Header() {\n"+
		"  const user = useStore((state) => state.user)\n"+
		"}\n")
	writeComponent(t, root, "ui/Button.tsx", "export const Button = () => null\n")

	var log bytes.Buffer
	s := idleShell(t, &log)

	tests := []struct {
		name string
		args string
	}{
		{"camelCase key", `{"basePath": ` + quote(root) + `}`},
		{"snake_case key", `{"base_path": ` + quote(root) + `}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := s.Invoke("analyze_codebase", []byte(tt.args))
			if err != nil {
				t.Fatalf("analyze_codebase failed: %v", err)
			}
			result, ok := out.(*scanner.AnalysisResult)
			if !ok {
				t.Fatalf("expected *scanner.AnalysisResult, got %T", out)
			}
			if result.TotalFiles != 2 || len(result.Dependencies) != 2 {
				t.Fatalf("expected 2 files and 2 dependencies, got %d and %d", result.TotalFiles, len(result.Dependencies))
			}
			dep, ok := result.FindComponent("Header")
			if !ok {
				t.Fatal("expected Header component")
			}
			if len(dep.StoreUsage) != 1 || dep.StoreUsage[0] != "user" {
				t.Errorf("Header store usage = %v, want [user]", dep.StoreUsage)
			}
			if len(dep.Imports) != 1 || dep.Imports[0] != "../store" {
				t.Errorf("Header imports = %v, want [../store]", dep.Imports)
			}
		})
	}
}

func TestInvokeAnalyzeMissingComponents(t *testing.T) {
	var log bytes.Buffer
	s := idleShell(t, &log)
	root := t.TempDir()

	out, err := s.Invoke("analyze_codebase", []byte(`{"basePath": `+quote(root)+`}`))
	if err == nil {
		t.Fatal("expected error without src/components")
	}
	if out != nil {
		t.Errorf("expected nil result on error, got %v", out)
	}
	if !errors.Is(err, scanner.ErrComponentsNotFound) {
		t.Errorf("expected ErrComponentsNotFound, got %v", err)
	}
	want := "src/components directory not found at " + scanner.ComponentsPath(root)
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestInvokeAnalyzeBadArgs(t *testing.T) {
	var log bytes.Buffer
	s := idleShell(t, &log)

	_, err := s.Invoke("analyze_codebase", []byte(`{"basePath": 42}`))
	if err == nil || !strings.Contains(err.Error(), "invalid arguments") {
		t.Errorf("expected invalid arguments error, got %v", err)
	}
}

func TestBackendStatusWithoutBackend(t *testing.T) {
	var log bytes.Buffer
	s := idleShell(t, &log)
	s.Setup()

	out, err := s.Invoke("backend_status", nil)
	if err != nil {
		t.Fatalf("backend_status failed: %v", err)
	}
	status, ok := out.(BackendStatus)
	if !ok {
		t.Fatalf("expected BackendStatus, got %T", out)
	}
	if status.Running || status.PID != 0 {
		t.Errorf("expected stopped backend, got %+v", status)
	}
	if !strings.Contains(log.String(), "Backend entry point not found") {
		t.Errorf("expected missing entry point to be logged, got: %s", log.String())
	}
	if !strings.Contains(log.String(), "Continuing without backend") {
		t.Errorf("expected shell to keep running, got: %s", log.String())
	}
}

func TestRunReturnsOnCancel(t *testing.T) {
	var log bytes.Buffer
	s := idleShell(t, &log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !strings.Contains(log.String(), "close-requested") {
		t.Errorf("expected close request to be logged, got: %s", log.String())
	}
}

func TestWindowEventString(t *testing.T) {
	tests := []struct {
		event WindowEvent
		want  string
	}{
		{Focused, "focused"},
		{CloseRequested, "close-requested"},
		{Destroyed, "destroyed"},
		{WindowEvent(42), "window-event(42)"},
	}
	for _, tt := range tests {
		if got := tt.event.String(); got != tt.want {
			t.Errorf("WindowEvent(%d).String() = %q, want %q", int(tt.event), got, tt.want)
		}
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
}
