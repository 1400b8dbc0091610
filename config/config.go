// Package config loads runtime settings from .env and the environment.
package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/aminech33/newmars/supervisor"
)

// BuildMode is the default build mode, set at link time with
// -ldflags "-X github.com/aminech33/newmars/config.BuildMode=packaged".
var BuildMode = "development"

// Config holds settings shared by the CLI, the shell glue and the MCP server.
type Config struct {
	Mode         supervisor.BuildMode
	Interpreter  string // empty means the per-OS default
	BackendEntry string
	Verbose      bool
}

// Load reads .env (if present) and then the NEWMARS_* environment variables.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	mode, ok := supervisor.ParseBuildMode(os.Getenv("NEWMARS_BUILD_MODE"))
	if !ok {
		mode, _ = supervisor.ParseBuildMode(BuildMode)
	}

	return &Config{
		Mode:         mode,
		Interpreter:  strings.TrimSpace(os.Getenv("NEWMARS_PYTHON")),
		BackendEntry: firstNonEmpty(strings.TrimSpace(os.Getenv("NEWMARS_BACKEND_ENTRY")), supervisor.EntryPoint),
		Verbose:      parseBool(os.Getenv("NEWMARS_VERBOSE")),
	}
}

// Layout describes the running host for backend resolution.
func (c *Config) Layout() supervisor.Layout {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return supervisor.Layout{
		Mode:       c.Mode,
		GOOS:       runtime.GOOS,
		Executable: exe,
		WorkDir:    wd,
	}
}

// Supervisor builds a backend supervisor from the config.
func (c *Config) Supervisor(opts ...supervisor.Option) *supervisor.Supervisor {
	base := []supervisor.Option{
		supervisor.WithInterpreter(c.Interpreter),
		supervisor.WithEntryPoint(c.BackendEntry),
	}
	return supervisor.New(c.Layout(), append(base, opts...)...)
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
