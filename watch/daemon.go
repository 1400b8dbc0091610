// Package watch keeps a component dependency report current as files change
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aminech33/newmars/scanner"

	"github.com/fsnotify/fsnotify"
	ignore "github.com/sabhiram/go-gitignore"
)

// StateDir is the per-project directory holding the daemon's state, event log and PID file.
const StateDir = ".newmars"

// Daemon is the watch daemon that keeps the report updated
type Daemon struct {
	root      string
	live      *Live
	watcher   *fsnotify.Watcher
	gitignore *ignore.GitIgnore
	eventLog  string // path to event log file
	verbose   bool
	done      chan struct{}
	stopOnce  sync.Once
}

// NewDaemon creates a new watch daemon for the given root
func NewDaemon(root string, verbose bool) (*Daemon, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	d := &Daemon{
		root:      absRoot,
		watcher:   watcher,
		gitignore: scanner.LoadGitignore(absRoot),
		verbose:   verbose,
		done:      make(chan struct{}),
		eventLog:  filepath.Join(absRoot, StateDir, "events.log"),
		live: &Live{
			Root:   absRoot,
			Files:  make(map[string]*scanner.CodeDependency),
			State:   make(map[string]*FileState),
			Counted: make(map[string]bool),
			Events:  make([]Event, 0),
		},
	}

	return d, nil
}

// Start runs the initial scan, begins watching and returns immediately
func (d *Daemon) Start() error {
	stateDir := filepath.Join(d.root, StateDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s dir: %w", StateDir, err)
	}

	if err := d.fullScan(); err != nil {
		return fmt.Errorf("initial scan failed: %w", err)
	}

	if err := d.addWatchDirs(); err != nil {
		return fmt.Errorf("failed to add watch dirs: %w", err)
	}

	// Write initial state so readers see it immediately
	d.writeState()

	go d.eventLoop()

	return nil
}

// Stop shuts down the daemon. Calling it more than once is safe.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
		d.watcher.Close()
	})
}

// WriteState refreshes .newmars/state.json. Long-running owners call it
// periodically so ReadState does not report the daemon as stale.
func (d *Daemon) WriteState() {
	d.writeState()
}

// Root returns the absolute project root being watched
func (d *Daemon) Root() string {
	return d.root
}

// GetEvents returns up to limit recent events, oldest first (thread-safe)
func (d *Daemon) GetEvents(limit int) []Event {
	d.live.mu.RLock()
	defer d.live.mu.RUnlock()

	events := d.live.Events
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}

	result := make([]Event, len(events))
	copy(result, events)
	return result
}

// FileCount returns the number of qualifying source files currently tracked
func (d *Daemon) FileCount() int {
	d.live.mu.RLock()
	defer d.live.mu.RUnlock()
	return d.live.TotalFiles
}

// Result returns the current report, ordered by file path
func (d *Daemon) Result() *scanner.AnalysisResult {
	d.live.mu.RLock()
	defer d.live.mu.RUnlock()

	result := &scanner.AnalysisResult{
		Dependencies: make([]scanner.CodeDependency, 0, len(d.live.Files)),
		TotalFiles:   d.live.TotalFiles,
	}
	for _, dep := range d.live.Files {
		result.Dependencies = append(result.Dependencies, *dep)
	}
	sort.Slice(result.Dependencies, func(i, j int) bool {
		return result.Dependencies[i].FilePath < result.Dependencies[j].FilePath
	})
	return result
}

// fullScan analyzes the project and seeds the per-file cache
func (d *Daemon) fullScan() error {
	start := time.Now()

	opts := []scanner.Option{scanner.WithIgnore(d.gitignore)}
	if d.verbose {
		opts = append(opts, scanner.WithLogger(os.Stdout))
	}
	result, err := scanner.Analyze(d.root, opts...)
	if err != nil {
		return err
	}

	// Analyze only reports readable files; list the qualifying ones so
	// unreadable files are counted the same way it counts them.
	counted := make(map[string]bool)
	if files, err := scanner.WalkFiltered(scanner.ComponentsPath(d.root), scanner.IgnoreFunc(d.gitignore)); err == nil {
		for _, path := range files {
			if scanner.IsSourceFile(filepath.Base(path)) {
				counted[d.relPath(path)] = true
			}
		}
	}

	d.live.mu.Lock()
	d.live.Files = make(map[string]*scanner.CodeDependency)
	d.live.State = make(map[string]*FileState)
	d.live.Counted = counted
	for i := range result.Dependencies {
		dep := &result.Dependencies[i]
		rel := d.relPath(dep.FilePath)
		d.live.Files[rel] = dep
		d.live.Counted[rel] = true
		if data, err := os.ReadFile(dep.FilePath); err == nil {
			hash, _ := contentHash(data)
			d.live.State[rel] = &FileState{Lines: countLines(data), Hash: hash}
		}
	}
	d.live.TotalFiles = len(d.live.Counted)
	d.live.LastScan = time.Now()
	d.live.mu.Unlock()

	if d.verbose {
		fmt.Printf("[watch] Full scan: %d files, %d components in %v\n", result.TotalFiles, len(result.Dependencies), time.Since(start))
	}

	return nil
}

// addWatchDirs recursively adds the components directories to the watcher
func (d *Daemon) addWatchDirs() error {
	return filepath.Walk(scanner.ComponentsPath(d.root), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip errors
		}
		if !info.IsDir() {
			return nil
		}
		if d.skipDir(path) {
			return filepath.SkipDir
		}
		return d.watcher.Add(path)
	})
}

// skipDir reports whether a directory is never watched
func (d *Daemon) skipDir(path string) bool {
	if scanner.IgnoredDirs[filepath.Base(path)] {
		return true
	}
	if d.gitignore != nil && d.gitignore.MatchesPath(filepath.ToSlash(d.relPath(path))+"/") {
		return true
	}
	return false
}

func (d *Daemon) relPath(path string) string {
	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		return path
	}
	return rel
}
