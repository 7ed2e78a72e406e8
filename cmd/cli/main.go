package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emmett/affect/internal/app"
	"github.com/emmett/affect/internal/config"
	"github.com/emmett/affect/internal/input"
	"github.com/emmett/affect/internal/logging"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile   = flag.String("config", "", "Path to configuration file (default: ~/.affectrc or /etc/affect/config.yaml)")
	outputFormat = flag.String("format", "console", "Output format: console, json, text")
	outputFile   = flag.String("output", "", "Output file (default: stdout)")
	audioDevice  = flag.String("device", "", "Audio input device name (use --list-devices to see available devices)")
	listDevices  = flag.Bool("list-devices", false, "List all available audio input devices")
	inputFile    = flag.String("input", "", "Analyze a mono 16-bit WAV file instead of the microphone")
	realtime     = flag.Bool("realtime", false, "Replay --input at recording speed")
	hotkey       = flag.String("hotkey", "", "Global hotkey toggling pause, e.g. ctrl+shift+p")
	rigidity     = flag.Float64("rigidity", 0.3, "Emotional rigidity of the child (0-1)")
	distraction  = flag.Int("distraction", 1, "Distraction level of the child (0-4)")
	window       = flag.Duration("window", 8*time.Second, "Analysis window duration (7s-10s)")
	logLevel     = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat    = flag.String("log-format", "text", "Log format: text, json")
	showVersion  = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	applyConfigDefaults(cfg)

	if *showVersion {
		fmt.Printf("Affect CLI v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	if *listDevices {
		dm := app.NewDeviceManager()
		if err := dm.ListDevices(); err != nil {
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "Affect CLI v%s (commit: %s, branch: %s, built: %s)\n\n",
		Version, GitCommit, GitBranch, BuildTime)

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func applyConfigDefaults(cfg *config.Config) {
	flagsSet := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		flagsSet[f.Name] = true
	})

	if !flagsSet["format"] && cfg.Output.Format != "" {
		*outputFormat = cfg.Output.Format
	}
	if !flagsSet["output"] && cfg.Output.File != "" {
		*outputFile = cfg.Output.File
	}
	if !flagsSet["device"] && cfg.Audio.Device != "" {
		*audioDevice = cfg.Audio.Device
	}
	if !flagsSet["hotkey"] && cfg.Server.Hotkey != "" {
		*hotkey = cfg.Server.Hotkey
	}
	if !flagsSet["rigidity"] {
		*rigidity = cfg.Child.EmotionalRigidity
	}
	if !flagsSet["distraction"] {
		*distraction = cfg.Child.Distraction
	}
	if !flagsSet["window"] && cfg.Analysis.WindowDuration > 0 {
		*window = cfg.Analysis.WindowDuration
	}
	if !flagsSet["log-level"] && cfg.Log.Level != "" {
		*logLevel = cfg.Log.Level
	}
	if !flagsSet["log-format"] && cfg.Log.Format != "" {
		*logFormat = cfg.Log.Format
	}

	// Write flag values back so validation covers both sources
	cfg.Child.EmotionalRigidity = *rigidity
	cfg.Child.Distraction = *distraction
	cfg.Analysis.WindowDuration = *window
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(os.Stderr, *logLevel, *logFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitor := app.NewMonitor(app.MonitorConfig{
		Analysis:     cfg.PipelineConfig(),
		Child:        cfg.ChildState(),
		BufferFrames: cfg.Audio.BufferFrames,
		OutputFormat: *outputFormat,
		OutputFile:   *outputFile,
		AudioDevice:  *audioDevice,
		InputFile:    *inputFile,
		Realtime:     *realtime,
	}, log)

	// The hotkey is bound here, not in the monitor, so the servers never
	// load the display-bound hotkey package.
	if *hotkey != "" {
		toggle := input.NewPauseToggle(monitor.SetPaused)
		if err := toggle.Start(ctx, *hotkey); err != nil {
			return err
		}
		defer toggle.Stop()
		fmt.Fprintf(os.Stderr, "Press %s to pause or resume analysis\n", *hotkey)
	}

	return monitor.Run(ctx)
}
