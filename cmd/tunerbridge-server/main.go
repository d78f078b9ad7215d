// Tunerbridge-server is the lineup synchronization daemon.
//
// It discovers HDHomeRun tuners on the local network, fetches their
// channel lineups over HTTP, and keeps a source registry in step with
// what the tuners currently offer. A small control API exposes the
// device table, the registered sources, manual refresh and discovery
// triggers, and a WebSocket stream of registry changes.
//
// Usage:
//
//	tunerbridge-server run [flags]
//
// See 'tunerbridge-server run --help' for available options.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rgowan/tunerbridge/internal/config"
	"github.com/rgowan/tunerbridge/internal/devices"
	"github.com/rgowan/tunerbridge/internal/discovery"
	"github.com/rgowan/tunerbridge/internal/engine"
	"github.com/rgowan/tunerbridge/internal/lineup"
	"github.com/rgowan/tunerbridge/internal/logging"
	"github.com/rgowan/tunerbridge/internal/registry"
	"github.com/rgowan/tunerbridge/internal/server"
	"github.com/rgowan/tunerbridge/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tunerbridge-server",
	Short: "Tuner Lineup Synchronization Daemon",
	Long: `The tunerbridge daemon discovers HDHomeRun tuners, fetches their channel
lineups, and keeps a source registry synchronized with what the tuners offer.

Devices are found via mDNS and UDP broadcast probes and verified over HTTP.
Lineups are re-fetched on a fixed interval; discovery events and manual
triggers schedule additional passes.

Note: For one-shot scans and daemon queries, use the separate 'tunerbridge'
command line utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

// Run command and flags
var (
	configPath string
	listenAddr string
	logLevel   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the synchronization daemon",
	Long: `Start the daemon: continuous discovery, periodic lineup refresh, and the
control API.

Configuration is read from the platform config directory (for example
~/.config/tunerbridge/config.yaml on Linux) unless --config points
elsewhere. Flags override file settings.`,
	Example: `  # Start with defaults (control API on 127.0.0.1:7780)
  tunerbridge-server run

  # Start with a specific config file and verbose logging
  tunerbridge-server run --config ./config.yaml --log-level debug

  # Expose the control API on another interface
  tunerbridge-server run --listen 0.0.0.0:7780`,
	RunE: runDaemon,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: platform config dir)")
	runCmd.Flags().StringVar(&listenAddr, "listen", "", "Control API listen address (overrides config)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if listenAddr != "" {
		settings.ListenAddr = listenAddr
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}

	level := settings.LogLevel
	if level == "" {
		level = os.Getenv(logging.LogLevelEnvVar)
	}
	if level == "" {
		// The daemon logs at info by default; silent mode is for the CLI.
		level = "info"
	}
	if err := logging.Initialize(level); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	logging.Info("Starting tunerbridge daemon",
		zap.String("version", version.Version),
		zap.String("listen_addr", settings.ListenAddr),
		zap.Int("refresh_interval_s", settings.RefreshInterval),
		zap.Int("discover_interval_s", settings.DiscoverInterval),
		zap.Bool("radio_only", settings.RadioOnly),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Core components.
	store := devices.NewStore()
	sources := registry.NewMemory()
	client := lineup.NewClient(settings.FetchTimeoutDuration())

	monitor := discovery.NewMonitor(client)
	monitor.Interval = settings.DiscoverIntervalDuration()
	monitor.ScanTimeout = settings.ScanTimeoutDuration()
	monitor.LostAfterMisses = settings.LostAfterMisses

	reconciler := engine.NewReconciler(sources, store)
	scheduler := engine.NewScheduler(store, client, reconciler, monitor, settings.RefreshIntervalDuration())
	scheduler.RadioOnly = settings.RadioOnly

	listener := engine.NewListener(store, scheduler, monitor.Events())

	srv := server.New(&server.Config{ListenAddr: settings.ListenAddr}, store, sources, scheduler)

	// Statically configured devices join the table before the first pass.
	for _, static := range settings.StaticDevices {
		scheduler.SeedStatic(ctx, static.Address, static.Name)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		monitor.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		listener.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(ctx)
	}()

	// Shut down on SIGINT or SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-serverErr:
		if err != nil {
			logging.Error("Control API failed", zap.Error(err))
			cancel()
			wg.Wait()
			return err
		}
		cancel()
	}

	wg.Wait()
	logging.Info("Daemon stopped")
	return nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tunerbridge-server %s (commit: %s)\n", version.Version, version.Commit)
	},
}
