package supervisor

import (
	"path/filepath"
	"strings"
)

// BuildMode selects where the backend is looked up.
type BuildMode int

const (
	// Development resolves the backend relative to the working directory.
	Development BuildMode = iota
	// Packaged resolves the backend relative to the running executable.
	Packaged
)

func (m BuildMode) String() string {
	if m == Packaged {
		return "packaged"
	}
	return "development"
}

// ParseBuildMode accepts "development"/"dev"/"debug" and "packaged"/"release"/"production".
func ParseBuildMode(s string) (BuildMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev", "debug":
		return Development, true
	case "packaged", "release", "production", "prod":
		return Packaged, true
	}
	return Development, false
}

// EntryPoint is the script the backend interpreter runs.
const EntryPoint = "main.py"

var interpreters = map[string]string{
	"windows": "python",
	"darwin":  "python3",
	"linux":   "python3",
}

// Interpreter returns the Python executable name for a GOOS value.
func Interpreter(goos string) string {
	if name, ok := interpreters[goos]; ok {
		return name
	}
	return "python3"
}

// Layout describes the host the backend is resolved against.
type Layout struct {
	Mode       BuildMode
	GOOS       string
	Executable string // path of the running executable
	WorkDir    string // working directory at launch
}

// BackendDir resolves the backend directory. exists is only consulted for the
// macOS bundle layout, where Contents/Resources/backend is preferred over a
// directory next to the executable.
func (l Layout) BackendDir(exists func(string) bool) string {
	if l.Mode == Development {
		return filepath.Join(l.WorkDir, "..", "backend")
	}

	exeDir := filepath.Dir(l.Executable)
	if l.GOOS == "darwin" {
		resources := filepath.Join(exeDir, "..", "Resources", "backend")
		if exists != nil && exists(resources) {
			return resources
		}
	}
	return filepath.Join(exeDir, "backend")
}
