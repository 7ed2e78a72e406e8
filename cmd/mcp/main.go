package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/emmett/affect/internal/app"
	"github.com/emmett/affect/internal/config"
	"github.com/emmett/affect/internal/logging"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file (default: ~/.affectrc or /etc/affect/config.yaml)")
	rigidity    = flag.Float64("rigidity", 0.3, "Default emotional rigidity when a call omits it (0-1)")
	distraction = flag.Int("distraction", 1, "Default distraction level when a call omits it (0-4)")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Affect MCP v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	flagsSet := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		flagsSet[f.Name] = true
	})
	if flagsSet["rigidity"] {
		cfg.Child.EmotionalRigidity = *rigidity
	}
	if flagsSet["distraction"] {
		cfg.Child.Distraction = *distraction
	}
	if flagsSet["log-level"] {
		cfg.Log.Level = *logLevel
	}

	// stdout carries the protocol, so logs always go to stderr as JSON
	log, err := logging.New(os.Stderr, cfg.Log.Level, "json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := app.NewMCPHandler(cfg.PipelineConfig(), cfg.ChildState(), int(cfg.Audio.BufferFrames), Version, GitCommit, log)
	if err := handler.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
