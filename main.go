package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aminech33/newmars/cmd"
	"github.com/aminech33/newmars/config"
	"github.com/aminech33/newmars/render"
	"github.com/aminech33/newmars/scanner"
	"github.com/aminech33/newmars/watch"

	"github.com/viant/afs"
)

func main() {
	jsonMode := flag.Bool("json", false, "Output the report as JSON")
	yamlMode := flag.Bool("yaml", false, "Output the report as YAML")
	outURL := flag.String("out", "", "Write the encoded report to a file or afs URL instead of stdout")
	browseMode := flag.Bool("browse", false, "Browse components interactively")
	useGitignore := flag.Bool("gitignore", false, "Skip files matched by the project's .gitignore")
	verbose := flag.Bool("verbose", false, "Log scan progress to stderr")
	helpMode := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *helpMode {
		printHelp()
		os.Exit(0)
	}

	cfg := config.Load()
	if *verbose {
		cfg.Verbose = true
	}

	switch flag.Arg(0) {
	case "shell":
		runShell(cfg, flag.Arg(1))
		return
	case "watch":
		runWatch(cfg, flag.Arg(1), flag.Arg(2))
		return
	}

	root := flag.Arg(0)
	if root == "" {
		root = "."
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting absolute path: %v\n", err)
		os.Exit(1)
	}

	var opts []scanner.Option
	if cfg.Verbose {
		opts = append(opts, scanner.WithLogger(os.Stderr))
	}
	if *useGitignore {
		opts = append(opts, scanner.WithIgnore(scanner.LoadGitignore(absRoot)))
	}

	result, err := scanner.Analyze(absRoot, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	format := ""
	switch {
	case *jsonMode:
		format = render.FormatJSON
	case *yamlMode:
		format = render.FormatYAML
	}

	switch {
	case *outURL != "":
		if err := render.Publish(context.Background(), afs.New(), *outURL, result, format); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", *outURL)
	case format != "":
		if err := render.Encode(os.Stdout, result, format); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case *browseMode:
		if err := render.Browse(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		render.Report(os.Stdout, absRoot, result)
	}
}

func printHelp() {
	fmt.Println("newmars - Map the components of a React/TypeScript frontend")
	fmt.Println()
	fmt.Println("Usage: newmars [options] [path]")
	fmt.Println("       newmars shell [path]")
	fmt.Println("       newmars watch start|stop|status [path]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --help       Show this help message")
	fmt.Println("  --json       Output the report as JSON")
	fmt.Println("  --yaml       Output the report as YAML")
	fmt.Println("  --out URL    Write the report to a file or URL (format from extension)")
	fmt.Println("  --browse     Interactive component browser")
	fmt.Println("  --gitignore  Honor the project's .gitignore")
	fmt.Println("  --verbose    Log scan progress to stderr")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  newmars .                         # Component report")
	fmt.Println("  newmars --json . > report.json    # Machine-readable report")
	fmt.Println("  newmars --out s3://bucket/r.yaml  # Publish the report")
	fmt.Println("  newmars shell                     # Run the backend until interrupted")
	fmt.Println("  newmars watch start .             # Keep .newmars/state.json current")
}

// runShell starts the backend and keeps it alive until the process is interrupted
func runShell(cfg *config.Config, dir string) {
	if dir != "" {
		if err := os.Chdir(dir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	var scanLog io.Writer
	var opts []scanner.Option
	if cfg.Verbose {
		scanLog = os.Stderr
		opts = append(opts, scanner.WithLogger(os.Stderr))
	}

	shell := cmd.NewShell(cfg.Supervisor(), scanLog, opts...)
	if err := shell.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWatch(cfg *config.Config, action, root string) {
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting absolute path: %v\n", err)
		os.Exit(1)
	}

	switch action {
	case "start":
		if watch.IsRunning(absRoot) {
			fmt.Println("Watch daemon already running")
			return
		}
		daemon, err := watch.NewDaemon(absRoot, cfg.Verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := daemon.Start(); err != nil {
			daemon.Stop()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := watch.WritePID(absRoot); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not write PID file: %v\n", err)
		}
		fmt.Printf("Watching %s (%d component files)\n", scanner.ComponentsPath(absRoot), daemon.FileCount())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Refresh state.json so readers can tell the daemon is alive
		heartbeat := time.NewTicker(10 * time.Second)
		defer heartbeat.Stop()
	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case <-heartbeat.C:
				daemon.WriteState()
			}
		}

		daemon.Stop()
		watch.RemovePID(absRoot)

	case "stop":
		if err := watch.Stop(absRoot); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Watch daemon stopped")

	case "status":
		state := watch.ReadState(absRoot)
		if !watch.IsRunning(absRoot) || state == nil {
			fmt.Println("Watch daemon not running")
			return
		}
		fmt.Printf("Watch daemon running: %d files, %d components, %d recent events (updated %s)\n",
			state.FileCount, state.Components, len(state.RecentEvents), state.UpdatedAt.Format("15:04:05"))

	default:
		fmt.Fprintf(os.Stderr, "unknown watch action: %q\nAvailable: start, stop, status\n", action)
		os.Exit(1)
	}
}
