package watch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aminech33/newmars/scanner"

	"github.com/fsnotify/fsnotify"
)

// eventLoop processes file system events. Events on the same path are
// coalesced for debounceWindow and handled once, so a save that truncates
// and then writes is seen with its final content.
func (d *Daemon) eventLoop() {
	const debounceWindow = 100 * time.Millisecond
	pending := make(map[string]fsnotify.Op)
	fire := make(chan string)

	for {
		select {
		case <-d.done:
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			// Directory creates go through so new dirs get watched;
			// everything else must be a component source file
			if !scanner.IsSourceFile(filepath.Base(event.Name)) {
				if event.Op&fsnotify.Create == 0 {
					continue
				}
				if info, err := os.Stat(event.Name); err != nil || !info.IsDir() {
					continue
				}
			}

			if _, waiting := pending[event.Name]; !waiting {
				name := event.Name
				time.AfterFunc(debounceWindow, func() {
					select {
					case fire <- name:
					case <-d.done:
					}
				})
			}
			pending[event.Name] |= event.Op

		case name := <-fire:
			op := pending[name]
			delete(pending, name)
			d.handleEvent(fsnotify.Event{Name: name, Op: op})

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			if d.verbose {
				fmt.Printf("[watch] Error: %v\n", err)
			}
		}
	}
}

// handleEvent processes a single (possibly coalesced) file event
func (d *Daemon) handleEvent(fsEvent fsnotify.Event) {
	relPath := d.relPath(fsEvent.Name)
	if d.gitignore != nil && d.gitignore.MatchesPath(filepath.ToSlash(relPath)) {
		return
	}

	info, statErr := os.Stat(fsEvent.Name)
	if statErr != nil {
		// A dangling symlink still counts as a qualifying file, it just cannot be read
		if _, err := os.Lstat(fsEvent.Name); err == nil {
			d.markUnreadable(relPath)
			return
		}
	}

	var op string
	switch {
	case statErr != nil && fsEvent.Op&fsnotify.Remove != 0:
		op = "REMOVE"
	case statErr != nil && fsEvent.Op&fsnotify.Rename != 0:
		op = "RENAME"
	case statErr != nil:
		return
	case fsEvent.Op&fsnotify.Create != 0:
		op = "CREATE"
	case fsEvent.Op&fsnotify.Write != 0:
		op = "WRITE"
	default:
		return
	}

	event := Event{
		Time: time.Now(),
		Op:   op,
		Path: relPath,
	}

	switch op {
	case "CREATE", "WRITE":
		if info.IsDir() {
			if !d.skipDir(fsEvent.Name) {
				d.watcher.Add(fsEvent.Name)
			}
			return
		}

		data, err := os.ReadFile(fsEvent.Name)
		if err != nil {
			d.markUnreadable(relPath)
			return
		}
		hash, _ := contentHash(data)
		dep := scanner.ScanSource(fsEvent.Name, string(data))
		lines := countLines(data)

		d.live.mu.Lock()
		prev, tracked := d.live.State[relPath]
		if tracked && prev.Hash == hash {
			d.live.mu.Unlock()
			return
		}
		if tracked {
			event.Delta = lines - prev.Lines
		} else {
			event.Delta = lines // new or previously unreadable, all lines are added
		}
		d.live.State[relPath] = &FileState{Lines: lines, Hash: hash}
		d.live.Files[relPath] = &dep
		d.live.Counted[relPath] = true
		d.live.TotalFiles = len(d.live.Counted)

		event.Lines = lines
		event.Component = dep.ComponentName
		event.Imports = dep.Imports
		event.StoreUsage = dep.StoreUsage
		d.live.Events = append(d.live.Events, event)
		d.live.mu.Unlock()

	case "REMOVE", "RENAME":
		d.live.mu.Lock()
		dep, known := d.live.Files[relPath]
		if !known && !d.live.Counted[relPath] {
			d.live.mu.Unlock()
			return
		}
		if prev, exists := d.live.State[relPath]; exists {
			event.Delta = -prev.Lines
		}
		if known {
			event.Component = dep.ComponentName
		}
		delete(d.live.Files, relPath)
		delete(d.live.State, relPath)
		delete(d.live.Counted, relPath)
		d.live.TotalFiles = len(d.live.Counted)
		d.live.Events = append(d.live.Events, event)
		d.live.mu.Unlock()
	}

	d.logEvent(event)

	if d.verbose {
		deltaStr := ""
		if event.Delta != 0 {
			deltaStr = fmt.Sprintf(" (%+d lines)", event.Delta)
		}
		storeStr := ""
		if len(event.StoreUsage) > 0 {
			storeStr = " [store: " + strings.Join(event.StoreUsage, ", ") + "]"
		}
		fmt.Printf("[watch] %s %s %s %s%s%s\n", event.Time.Format("15:04:05"), op, relPath, event.Component, deltaStr, storeStr)
	}
}

// markUnreadable keeps a file in the count but drops its dependency entry,
// matching how Analyze treats a qualifying file it cannot read.
func (d *Daemon) markUnreadable(relPath string) {
	d.live.mu.Lock()
	delete(d.live.Files, relPath)
	delete(d.live.State, relPath)
	d.live.Counted[relPath] = true
	d.live.TotalFiles = len(d.live.Counted)
	d.live.mu.Unlock()

	d.writeState()

	if d.verbose {
		fmt.Printf("[watch] %s unreadable, counted without an entry\n", relPath)
	}
}

// logEvent appends an event to the log file
func (d *Daemon) logEvent(e Event) {
	f, err := os.OpenFile(d.eventLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	// Format: timestamp | OP | path | component | lines | delta
	deltaStr := ""
	if e.Delta > 0 {
		deltaStr = fmt.Sprintf("+%d", e.Delta)
	} else if e.Delta < 0 {
		deltaStr = fmt.Sprintf("%d", e.Delta)
	}

	line := fmt.Sprintf("%s | %-6s | %-40s | %-24s | %4d | %6s\n",
		e.Time.Format("2006-01-02 15:04:05"),
		e.Op,
		e.Path,
		e.Component,
		e.Lines,
		deltaStr,
	)
	f.WriteString(line)

	d.writeState()
}

// writeState persists the current snapshot for other processes to read
func (d *Daemon) writeState() {
	d.live.mu.RLock()
	defer d.live.mu.RUnlock()

	// Keep the last 50 events for the timeline
	events := d.live.Events
	if len(events) > 50 {
		events = events[len(events)-50:]
	}

	storeFields := make(map[string]int)
	for _, dep := range d.live.Files {
		for _, f := range dep.StoreUsage {
			storeFields[f]++
		}
	}

	state := State{
		UpdatedAt:    time.Now(),
		FileCount:    d.live.TotalFiles,
		Components:   len(d.live.Files),
		StoreFields:  storeFields,
		RecentEvents: events,
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return
	}

	os.WriteFile(statePath(d.root), data, 0644)
}

// countLines counts lines the way a line scanner sees them
func countLines(data []byte) int {
	count := 0
	s := bufio.NewScanner(bytes.NewReader(data))
	s.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for s.Scan() {
		count++
	}
	return count
}
