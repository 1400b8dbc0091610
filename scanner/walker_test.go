package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (slash-separated, relative to root) with the given content.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()
	var rels []string
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		rels = append(rels, filepath.ToSlash(rel))
	}
	sort.Strings(rels)
	return rels
}

func TestWalk(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"App.tsx":               "a",
		"README.md":             "b",
		"tasks/TaskList.tsx":    "c",
		"tasks/util/helpers.ts": "d",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "empty"), 0755))

	files, err := Walk(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"App.tsx",
		"README.md",
		"tasks/TaskList.tsx",
		"tasks/util/helpers.ts",
	}, relPaths(t, tmpDir, files))
}

func TestWalkEmptyDir(t *testing.T) {
	files, err := Walk(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWalkMissingRoot(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWalkUnlistableSubdir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"ok/A.tsx":     "a",
		"locked/B.tsx": "b",
	})
	locked := filepath.Join(tmpDir, "locked")
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	files, err := Walk(tmpDir)
	require.Error(t, err)
	assert.Nil(t, files)
}

func TestWalkFiltered(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"A.tsx":               "a",
		"legacy/Old.tsx":      "b",
		"legacy/deep/Old2.ts": "c",
		"B.ts":                "d",
	})

	files, err := WalkFiltered(tmpDir, func(rel string, isDir bool) bool {
		return isDir && rel == "legacy"
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A.tsx", "B.ts"}, relPaths(t, tmpDir, files))
}

func TestWalkFollowsDirSymlink(t *testing.T) {
	tmpDir := t.TempDir()
	target := t.TempDir()
	writeTree(t, target, map[string]string{"Shared.tsx": "s"})
	if err := os.Symlink(target, filepath.Join(tmpDir, "shared")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	files, err := Walk(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared/Shared.tsx"}, relPaths(t, tmpDir, files))
}

func TestLoadGitignore(t *testing.T) {
	assert.Nil(t, LoadGitignore("/nonexistent/path"))

	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{".gitignore": "legacy/\n*.gen.ts\n"})

	gi := LoadGitignore(tmpDir)
	require.NotNil(t, gi)
	assert.True(t, gi.MatchesPath("src/components/legacy/Old.tsx"))
	assert.True(t, gi.MatchesPath("src/components/api.gen.ts"))
	assert.False(t, gi.MatchesPath("src/components/App.tsx"))
}
