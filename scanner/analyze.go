// Package scanner builds the component dependency report for a front-end project.
package scanner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// ComponentsDir is the directory, relative to the project root, that gets scanned.
const ComponentsDir = "src/components"

// SourceSuffixes are the file name suffixes that qualify a file for scanning.
var SourceSuffixes = []string{".tsx", ".ts"}

// ErrComponentsNotFound matches the error Analyze returns when the components directory is missing.
var ErrComponentsNotFound = errors.New("components directory not found")

// NotFoundError carries the directory that was expected.
type NotFoundError struct {
	Dir string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s directory not found at %s", ComponentsDir, e.Dir)
}

// Is makes errors.Is(err, ErrComponentsNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrComponentsNotFound
}

// Option configures Analyze.
type Option func(*options)

type options struct {
	log    io.Writer
	ignore *ignore.GitIgnore
}

// WithLogger writes progress lines to w.
func WithLogger(w io.Writer) Option {
	return func(o *options) { o.log = w }
}

// WithIgnore prunes paths matched by gi, relative to the project root.
func WithIgnore(gi *ignore.GitIgnore) Option {
	return func(o *options) { o.ignore = gi }
}

// walkFiltered is the listing Analyze uses; tests swap it to simulate walk failures.
var walkFiltered = WalkFiltered

// IgnoreFunc adapts gi to a SkipFunc for paths under ComponentsDir.
// A nil gi skips nothing.
func IgnoreFunc(gi *ignore.GitIgnore) SkipFunc {
	if gi == nil {
		return nil
	}
	return func(rel string, isDir bool) bool {
		return gi.MatchesPath(filepath.ToSlash(filepath.Join(ComponentsDir, rel)))
	}
}

// IsSourceFile reports whether a file name ends in one of SourceSuffixes.
func IsSourceFile(name string) bool {
	for _, suffix := range SourceSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// ComponentsPath returns the directory Analyze scans for basePath.
func ComponentsPath(basePath string) string {
	return filepath.Join(basePath, filepath.FromSlash(ComponentsDir))
}

// Analyze scans basePath/src/components and returns one dependency entry per readable
// .ts/.tsx file. The only error is a missing components directory; unreadable files
// and a failed walk are absorbed.
func Analyze(basePath string, opts ...Option) (*AnalysisResult, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	dir := ComponentsPath(basePath)
	o.logf("Analyzing %s", dir)

	if _, err := os.Stat(dir); err != nil {
		notFound := &NotFoundError{Dir: dir}
		o.logf("%v", notFound)
		return nil, notFound
	}

	files, err := walkFiltered(dir, IgnoreFunc(o.ignore))
	if err != nil {
		o.logf("Walk failed, treating as empty: %v", err)
		files = nil
	}
	o.logf("%d files found", len(files))

	result := &AnalysisResult{Dependencies: []CodeDependency{}}
	for _, path := range files {
		name := filepath.Base(path)
		if !IsSourceFile(name) {
			continue
		}
		result.TotalFiles++

		dep, err := ScanFile(path)
		if err != nil {
			o.logf("Skipping %s: %v", name, err)
			continue
		}
		o.logf("%s -> %s (%d imports, store: %v)", name, dep.ComponentName, len(dep.Imports), dep.StoreUsage)
		result.Dependencies = append(result.Dependencies, dep)
	}

	o.logf("Done: %d source files, %d dependencies", result.TotalFiles, len(result.Dependencies))
	return result, nil
}

// ScanFile reads one source file and applies the three extractors to it.
func ScanFile(path string) (CodeDependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CodeDependency{}, err
	}
	return ScanSource(path, string(data)), nil
}

// ScanSource applies the extractors to already-loaded content.
func ScanSource(path, content string) CodeDependency {
	return CodeDependency{
		FilePath:      path,
		Imports:       ExtractImports(content),
		StoreUsage:    ExtractStoreUsage(content),
		ComponentName: ExtractComponentName(content, filepath.Base(path)),
	}
}

func (o *options) logf(format string, args ...any) {
	if o.log == nil {
		return
	}
	fmt.Fprintf(o.log, "[scan] "+format+"\n", args...)
}
