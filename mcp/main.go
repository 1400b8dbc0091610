// MCP Server for newmars - exposes component dependency analysis to LLMs
package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aminech33/newmars/render"
	"github.com/aminech33/newmars/scanner"
	"github.com/aminech33/newmars/watch"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverVersion = "0.1.0"

// Global watcher registry - tracks active watchers per project
var (
	watchers   = make(map[string]*watch.Daemon)
	watchersMu sync.RWMutex
)

// Input types for tools
type PathInput struct {
	Path string `json:"path" jsonschema:"Path to the project root (the directory containing src/components)"`
}

type ComponentInput struct {
	Path string `json:"path" jsonschema:"Path to the project root"`
	Name string `json:"name" jsonschema:"Component name to look up (exact match)"`
}

type FindInput struct {
	Path    string `json:"path" jsonschema:"Path to the project root"`
	Pattern string `json:"pattern" jsonschema:"Component name pattern to search for (case-insensitive substring match)"`
}

type StoreInput struct {
	Path  string `json:"path" jsonschema:"Path to the project root"`
	Field string `json:"field" jsonschema:"Store field name, as read via state.<field> in a useStore selector"`
}

type WatchInput struct {
	Path string `json:"path" jsonschema:"Path to the project root to watch"`
}

type WatchActivityInput struct {
	Path    string `json:"path" jsonschema:"Path to the project root"`
	Minutes int    `json:"minutes,omitempty" jsonschema:"Look back this many minutes (default: 30)"`
}

// EmptyInput for tools that don't need parameters
type EmptyInput struct{}

func main() {
	server := newServer()

	// Run server on stdio
	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Printf("Server error: %v", err)
	}

	stopAllWatchers()
}

func newServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "newmars",
		Version: serverVersion,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_codebase",
		Description: "Scan src/components of a project and report, per .ts/.tsx file, its component name, import sources and the store fields it reads through useStore selectors. Use this to understand how the frontend's components connect.",
	}, handleAnalyze)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_component",
		Description: "Get the dependency entry for one component: its file, imports and store fields.",
	}, handleGetComponent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_component",
		Description: "Find components whose name matches a pattern. Returns names with their files.",
	}, handleFindComponent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_store_usage",
		Description: "List the components that read a given store field. Use this before changing the store's shape to see what breaks.",
	}, handleFindStoreUsage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "status",
		Description: "Check newmars MCP server status. Returns version and active watchers.",
	}, handleStatus)

	// === LIVE WATCH TOOLS ===

	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_watch",
		Description: "Start live watching of a project's components. Every save re-scans the changed file, so imports and store usage stay current. Use get_activity to see what changed.",
	}, handleStartWatch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stop_watch",
		Description: "Stop the live watcher for a project.",
	}, handleStopWatch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_activity",
		Description: "Get recent component activity for a watched project: which components were edited, line deltas, and how their imports and store usage look now.",
	}, handleGetActivity)

	return server
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// resolvePath expands a leading ~/ and makes the path absolute
func resolvePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(path)
}

// analyze always runs a fresh scan; watchers only feed get_activity
func analyze(absRoot string) (*scanner.AnalysisResult, error) {
	return scanner.Analyze(absRoot, scanner.WithIgnore(scanner.LoadGitignore(absRoot)))
}

func handleAnalyze(ctx context.Context, req *mcp.CallToolRequest, input PathInput) (*mcp.CallToolResult, any, error) {
	absRoot, err := resolvePath(input.Path)
	if err != nil {
		return errorResult("Invalid path: " + err.Error()), nil, nil
	}

	result, err := analyze(absRoot)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	var buf bytes.Buffer
	render.Report(&buf, absRoot, result)
	return textResult(buf.String()), nil, nil
}

func handleGetComponent(ctx context.Context, req *mcp.CallToolRequest, input ComponentInput) (*mcp.CallToolResult, any, error) {
	absRoot, err := resolvePath(input.Path)
	if err != nil {
		return errorResult("Invalid path: " + err.Error()), nil, nil
	}
	result, err := analyze(absRoot)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	dep, ok := result.FindComponent(input.Name)
	if !ok {
		return textResult("No component named '" + input.Name + "'"), nil, nil
	}
	return textResult(describeComponent(absRoot, dep)), nil, nil
}

func describeComponent(absRoot string, dep scanner.CodeDependency) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== Component: %s ===\n", dep.ComponentName))
	sb.WriteString(fmt.Sprintf("File: %s\n\n", relTo(absRoot, dep.FilePath)))

	if len(dep.Imports) > 0 {
		sb.WriteString(fmt.Sprintf("IMPORTS (%d):\n", len(dep.Imports)))
		for _, imp := range dep.Imports {
			sb.WriteString(fmt.Sprintf("  -> %s\n", imp))
		}
	} else {
		sb.WriteString("IMPORTS: none\n")
	}
	sb.WriteString("\n")

	if len(dep.StoreUsage) > 0 {
		sb.WriteString(fmt.Sprintf("STORE FIELDS (%d):\n", len(dep.StoreUsage)))
		for _, f := range dep.StoreUsage {
			sb.WriteString(fmt.Sprintf("  state.%s\n", f))
		}
	} else {
		sb.WriteString("STORE FIELDS: none\n")
	}
	return sb.String()
}

func handleFindComponent(ctx context.Context, req *mcp.CallToolRequest, input FindInput) (*mcp.CallToolResult, any, error) {
	absRoot, err := resolvePath(input.Path)
	if err != nil {
		return errorResult("Invalid path: " + err.Error()), nil, nil
	}
	result, err := analyze(absRoot)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	pattern := strings.ToLower(input.Pattern)
	var matches []string
	for _, d := range result.Dependencies {
		if strings.Contains(strings.ToLower(d.ComponentName), pattern) {
			matches = append(matches, fmt.Sprintf("%s (%s)", d.ComponentName, relTo(absRoot, d.FilePath)))
		}
	}

	if len(matches) == 0 {
		return textResult("No components found matching '" + input.Pattern + "'"), nil, nil
	}
	sort.Strings(matches)
	return textResult(fmt.Sprintf("Found %d components:\n%s", len(matches), strings.Join(matches, "\n"))), nil, nil
}

func handleFindStoreUsage(ctx context.Context, req *mcp.CallToolRequest, input StoreInput) (*mcp.CallToolResult, any, error) {
	absRoot, err := resolvePath(input.Path)
	if err != nil {
		return errorResult("Invalid path: " + err.Error()), nil, nil
	}
	result, err := analyze(absRoot)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	readers := result.StoreReaders(input.Field)
	if len(readers) == 0 {
		return textResult("No components read state." + input.Field), nil, nil
	}

	lines := make([]string, len(readers))
	for i, d := range readers {
		lines[i] = fmt.Sprintf("  %s (%s)", d.ComponentName, relTo(absRoot, d.FilePath))
	}
	sort.Strings(lines)
	return textResult(fmt.Sprintf("%d components read state.%s:\n%s", len(readers), input.Field, strings.Join(lines, "\n"))), nil, nil
}

func handleStatus(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, any, error) {
	cwd, _ := os.Getwd()

	watchersMu.RLock()
	var watchedPaths []string
	for path := range watchers {
		watchedPaths = append(watchedPaths, path)
	}
	watchersMu.RUnlock()
	sort.Strings(watchedPaths)

	watchStatus := "none"
	if len(watchedPaths) > 0 {
		watchStatus = fmt.Sprintf("%d active: %s", len(watchedPaths), strings.Join(watchedPaths, ", "))
	}

	return textResult(fmt.Sprintf(`newmars MCP server v%s
Status: connected
Working directory: %s
Active watchers: %s

Available tools:
  analyze_codebase - Component report for src/components
  get_component    - Imports and store fields of one component
  find_component   - Search components by name
  find_store_usage - Components reading a store field

Live watch tools:
  start_watch      - Start watching a project for changes
  stop_watch       - Stop watching a project
  get_activity     - Recent component edits`, serverVersion, cwd, watchStatus)), nil, nil
}

// === WATCH HANDLERS ===

func handleStartWatch(ctx context.Context, req *mcp.CallToolRequest, input WatchInput) (*mcp.CallToolResult, any, error) {
	absPath, err := resolvePath(input.Path)
	if err != nil {
		return errorResult("Invalid path: " + err.Error()), nil, nil
	}

	watchersMu.Lock()
	defer watchersMu.Unlock()

	if _, exists := watchers[absPath]; exists {
		return textResult(fmt.Sprintf("Already watching: %s\nUse get_activity to see recent changes.", absPath)), nil, nil
	}

	daemon, err := watch.NewDaemon(absPath, false)
	if err != nil {
		return errorResult("Failed to create watcher: " + err.Error()), nil, nil
	}

	if err := daemon.Start(); err != nil {
		daemon.Stop()
		return errorResult("Failed to start watcher: " + err.Error()), nil, nil
	}

	watchers[absPath] = daemon

	return textResult(fmt.Sprintf(`Live watcher started for: %s
Tracking %d component files

Each save re-scans the changed file, so imports and store usage stay current.
Use get_activity to see what you've been working on.`, absPath, daemon.FileCount())), nil, nil
}

func handleStopWatch(ctx context.Context, req *mcp.CallToolRequest, input WatchInput) (*mcp.CallToolResult, any, error) {
	absPath, err := resolvePath(input.Path)
	if err != nil {
		return errorResult("Invalid path: " + err.Error()), nil, nil
	}

	watchersMu.Lock()
	defer watchersMu.Unlock()

	daemon, exists := watchers[absPath]
	if !exists {
		return textResult("No active watcher for: " + absPath), nil, nil
	}

	events := daemon.GetEvents(0)
	daemon.Stop()
	delete(watchers, absPath)

	return textResult(fmt.Sprintf("Watcher stopped for: %s\nTotal events captured: %d", absPath, len(events))), nil, nil
}

func handleGetActivity(ctx context.Context, req *mcp.CallToolRequest, input WatchActivityInput) (*mcp.CallToolResult, any, error) {
	absPath, err := resolvePath(input.Path)
	if err != nil {
		return errorResult("Invalid path: " + err.Error()), nil, nil
	}

	watchersMu.RLock()
	daemon, exists := watchers[absPath]
	watchersMu.RUnlock()

	if !exists {
		return errorResult(fmt.Sprintf("No active watcher for: %s\nUse start_watch first.", absPath)), nil, nil
	}

	minutes := input.Minutes
	if minutes <= 0 {
		minutes = 30
	}

	events := daemon.GetEvents(0)
	cutoff := time.Now().Add(-time.Duration(minutes) * time.Minute)

	var recent []watch.Event
	for _, e := range events {
		if e.Time.After(cutoff) {
			recent = append(recent, e)
		}
	}

	if len(recent) == 0 {
		return textResult(fmt.Sprintf(`No activity in the last %d minutes.

Watcher is running for: %s
Component files tracked: %d
Total events since start: %d`, minutes, absPath, daemon.FileCount(), len(events))), nil, nil
	}

	// Aggregate by file
	type fileSummary struct {
		path      string
		component string
		edits     int
		delta     int
		store     []string
	}
	byFile := make(map[string]*fileSummary)
	for _, e := range recent {
		s, ok := byFile[e.Path]
		if !ok {
			s = &fileSummary{path: e.Path}
			byFile[e.Path] = s
		}
		s.edits++
		s.delta += e.Delta
		s.component = e.Component
		s.store = e.StoreUsage
	}

	summaries := make([]*fileSummary, 0, len(byFile))
	for _, s := range byFile {
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].edits != summaries[j].edits {
			return summaries[i].edits > summaries[j].edits
		}
		return summaries[i].path < summaries[j].path
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== Activity: Last %d minutes ===\n", minutes))
	sb.WriteString(fmt.Sprintf("Project: %s\n\n", absPath))

	sb.WriteString("HOT COMPONENTS (by edit count):\n")
	totalDelta := 0
	for i, s := range summaries {
		totalDelta += s.delta
		if i >= 10 {
			continue
		}
		storeStr := ""
		if len(s.store) > 0 {
			storeStr = "  store: " + strings.Join(s.store, ", ")
		}
		sb.WriteString(fmt.Sprintf("  %-24s %-40s %2d edits  %+6d lines%s\n",
			s.component, s.path, s.edits, s.delta, storeStr))
	}
	if len(summaries) > 10 {
		sb.WriteString(fmt.Sprintf("  ... and %d more files\n", len(summaries)-10))
	}

	sb.WriteString("\nSESSION SUMMARY:\n")
	sb.WriteString(fmt.Sprintf("  Files touched:   %d\n", len(summaries)))
	sb.WriteString(fmt.Sprintf("  Total events:    %d\n", len(recent)))
	sb.WriteString(fmt.Sprintf("  Net line change: %+d\n", totalDelta))

	// Recent timeline (last 5 events)
	sb.WriteString("\nRECENT TIMELINE:\n")
	start := len(recent) - 5
	if start < 0 {
		start = 0
	}
	for _, e := range recent[start:] {
		deltaStr := ""
		if e.Delta != 0 {
			deltaStr = fmt.Sprintf(" (%+d)", e.Delta)
		}
		sb.WriteString(fmt.Sprintf("  %s  %-6s  %s%s\n",
			e.Time.Format("15:04:05"), e.Op, e.Path, deltaStr))
	}

	return textResult(sb.String()), nil, nil
}

func stopAllWatchers() {
	watchersMu.Lock()
	defer watchersMu.Unlock()
	for path, daemon := range watchers {
		daemon.Stop()
		delete(watchers, path)
	}
}

func relTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
