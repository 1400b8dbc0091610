package supervisor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackendDir(t *testing.T) {
	exe := filepath.Join("/", "Applications", "NewMars.app", "Contents", "MacOS", "newmars")
	resources := filepath.Join("/", "Applications", "NewMars.app", "Contents", "Resources", "backend")

	tests := []struct {
		name   string
		layout Layout
		exists func(string) bool
		want   string
	}{
		{
			name:   "development uses the working directory",
			layout: Layout{Mode: Development, GOOS: "linux", Executable: "/opt/newmars/newmars", WorkDir: "/src/newmars/src-tauri"},
			want:   filepath.Join("/src/newmars/src-tauri", "..", "backend"),
		},
		{
			name:   "development ignores the bundle even on darwin",
			layout: Layout{Mode: Development, GOOS: "darwin", Executable: exe, WorkDir: "/work"},
			exists: func(string) bool { return true },
			want:   filepath.Join("/work", "..", "backend"),
		},
		{
			name:   "packaged linux sits next to the executable",
			layout: Layout{Mode: Packaged, GOOS: "linux", Executable: "/opt/newmars/newmars", WorkDir: "/home/u"},
			want:   filepath.Join("/opt/newmars", "backend"),
		},
		{
			name:   "packaged windows sits next to the executable",
			layout: Layout{Mode: Packaged, GOOS: "windows", Executable: filepath.Join("/", "Program Files", "NewMars", "newmars.exe")},
			exists: func(string) bool { return true },
			want:   filepath.Join("/", "Program Files", "NewMars", "backend"),
		},
		{
			name:   "packaged darwin prefers Resources",
			layout: Layout{Mode: Packaged, GOOS: "darwin", Executable: exe},
			exists: func(p string) bool { return p == resources },
			want:   resources,
		},
		{
			name:   "packaged darwin falls back next to the executable",
			layout: Layout{Mode: Packaged, GOOS: "darwin", Executable: exe},
			exists: func(string) bool { return false },
			want:   filepath.Join(filepath.Dir(exe), "backend"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.layout.BackendDir(tt.exists))
		})
	}
}

func TestInterpreter(t *testing.T) {
	assert.Equal(t, "python", Interpreter("windows"))
	assert.Equal(t, "python3", Interpreter("darwin"))
	assert.Equal(t, "python3", Interpreter("linux"))
	assert.Equal(t, "python3", Interpreter("freebsd"))
}

func TestParseBuildMode(t *testing.T) {
	tests := []struct {
		in     string
		want   BuildMode
		wantOK bool
	}{
		{"development", Development, true},
		{" Dev ", Development, true},
		{"packaged", Packaged, true},
		{"RELEASE", Packaged, true},
		{"", Development, false},
		{"staging", Development, false},
	}
	for _, tt := range tests {
		got, ok := ParseBuildMode(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
	}
	assert.Equal(t, "packaged", Packaged.String())
	assert.Equal(t, "development", Development.String())
}
