package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"

	"github.com/emmett/affect/internal/app"
	"github.com/emmett/affect/internal/config"
	"github.com/emmett/affect/internal/logging"
	grpcserver "github.com/emmett/affect/internal/server/grpc"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file (default: ~/.affectrc or /etc/affect/config.yaml)")
	port        = flag.Int("port", 50051, "gRPC server port")
	host        = flag.String("host", "localhost", "gRPC listen host")
	audioDevice = flag.String("device", "", "Audio input device name")
	inputFile   = flag.String("input", "", "Replay a mono 16-bit WAV file at recording speed instead of the microphone")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Affect gRPC Server v%s\n", Version)
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
	if flagsSet["port"] {
		cfg.Server.Port = *port
	}
	if flagsSet["host"] {
		cfg.Server.Host = *host
	}
	if flagsSet["device"] {
		cfg.Audio.Device = *audioDevice
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	log.WithField("version", Version).WithField("commit", GitCommit).Info("starting affect server")

	// Results are served over gRPC and logged as JSON lines on stdout
	monitor := app.NewMonitor(app.MonitorConfig{
		Analysis:     cfg.PipelineConfig(),
		Child:        cfg.ChildState(),
		BufferFrames: cfg.Audio.BufferFrames,
		OutputFormat: "json",
		AudioDevice:  cfg.Audio.Device,
		InputFile:    *inputFile,
		Realtime:     true,
	}, log)

	server, err := grpcserver.NewServer(grpcserver.Config{
		Host:   cfg.Server.Host,
		Port:   cfg.Server.Port,
		Logger: log,
	}, monitor.Hub())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	monitorErr := make(chan error, 1)
	go func() {
		monitorErr <- monitor.Run(ctx)
	}()

	var runErr error
	monitorDone := false
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		stop()
	case runErr = <-monitorErr:
		monitorDone = true
		if runErr == nil {
			// Keep serving the last estimate after a replay ends
			select {
			case <-ctx.Done():
			case runErr = <-serveErr:
			}
		}
		stop()
	}

	log.Info("shutting down")
	server.Stop()
	if !monitorDone {
		runErr = multierr.Append(runErr, <-monitorErr)
	}
	return runErr
}
