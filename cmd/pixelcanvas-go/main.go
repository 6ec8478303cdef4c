// Package main provides the entry point for the pixelcanvas-go
// collaborative canvas client. It connects to a pixel-canvas server,
// renders the shared grid with Ebiten, and paints through the server's
// HTTP API.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/opd-ai/go-pixelcanvas/internal/profiling"
	"github.com/opd-ai/go-pixelcanvas/pkg/pixelcanvas"
)

// Version is the current version of pixelcanvas-go.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command-line flags
	configPath := flag.String("c", "", "Path to a Lua settings file (optional; environment and defaults apply without one)")
	serverURL := flag.String("s", "", "Canvas server URL (overrides the settings file)")
	userID := flag.String("u", "", "User identity for painting (overrides the settings file)")
	title := flag.String("title", "", "Window title (overrides the settings file)")
	headless := flag.Bool("headless", false, "Run without a window; sync only")
	watch := flag.Bool("watch", false, "Reload the settings file when it changes on disk")
	version := flag.Bool("v", false, "Print version and exit")
	cpuProfile := flag.String("cpuprofile", "", "Write CPU profile to file")
	memProfile := flag.String("memprofile", "", "Write memory profile to file")
	flag.Parse()

	if *version {
		fmt.Printf("pixelcanvas-go version %s\n", Version)
		return 0
	}

	// Initialize profiling if requested
	profConfig := profiling.Config{
		CPUProfilePath: *cpuProfile,
		MemProfilePath: *memProfile,
	}
	profiler := profiling.New(profConfig)

	if profConfig.ProfilingEnabled() {
		if err := profiler.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start profiling: %v\n", err)
			return 1
		}
		defer func() {
			if err := profiler.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to stop profiling: %v\n", err)
			}
		}()
	}

	// A settings file is optional; without one the environment layers
	// and built-in defaults configure the session.
	if *configPath != "" {
		if _, err := os.Stat(*configPath); err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Settings file not found: %s\n", *configPath)
			} else {
				fmt.Fprintf(os.Stderr, "Error accessing settings file %s: %v\n", *configPath, err)
			}
			return 1
		}
		fmt.Printf("pixelcanvas-go %s starting with settings: %s\n", Version, *configPath)
	} else {
		fmt.Printf("pixelcanvas-go %s starting with environment settings\n", Version)
	}

	if *watch && *configPath == "" {
		fmt.Fprintln(os.Stderr, "-watch requires a settings file (-c)")
		return 1
	}

	opts := pixelcanvas.DefaultOptions()
	opts.ServerURL = *serverURL
	opts.UserID = *userID
	opts.WindowTitle = *title
	opts.Headless = *headless
	opts.WatchConfig = *watch

	// Create and start using the public API
	c, err := pixelcanvas.New(*configPath, &opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating canvas instance: %v\n", err)
		return 1
	}

	// Set up error handling
	c.SetErrorHandler(func(err error) {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	})

	// Set up event handling for lifecycle events
	c.SetEventHandler(func(e pixelcanvas.Event) {
		fmt.Printf("[%s] %s: %s\n", e.Timestamp.Format("15:04:05"), e.Type, e.Message)
	})

	if err := c.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for sig := range sigCh {
		switch sig {
		case syscall.SIGHUP:
			fmt.Println("Received SIGHUP, restarting session...")
			if err := c.Restart(); err != nil {
				fmt.Fprintf(os.Stderr, "Restart failed: %v\n", err)
			}
		default:
			fmt.Println("Shutting down...")
			if err := c.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "Stop error: %v\n", err)
			}
			return 0
		}
	}

	return 0
}
