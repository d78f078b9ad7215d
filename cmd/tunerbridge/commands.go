package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rgowan/tunerbridge/internal/client"
	"github.com/rgowan/tunerbridge/internal/config"
	"github.com/rgowan/tunerbridge/internal/discovery"
	"github.com/rgowan/tunerbridge/internal/lineup"
	"github.com/rgowan/tunerbridge/internal/tui"
)

// Command flags
var (
	daemonAddr   string
	scanTimeout  int
	outputFormat string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&daemonAddr, "addr", config.DefaultListenAddr, "Daemon control API address")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format (table, json)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(watchCmd)
}

// scanCmd discovers tuners directly, without a running daemon.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the network for tuners",
	Long: `Scan for HDHomeRun tuners using mDNS and UDP broadcast probes.

Each responding device is verified over HTTP before it is listed, so the
output only contains reachable tuners.`,
	Example: `  # Scan with the default 10 second window
  tunerbridge scan

  # Quick 3-second scan
  tunerbridge scan --timeout 3

  # Machine-readable output
  tunerbridge scan --format json`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", config.DefaultScanTimeout, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	timeout := time.Duration(scanTimeout) * time.Second
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout+10*time.Second)
	defer cancel()

	fmt.Printf("Scanning for tuners (timeout: %ds)...\n\n", scanTimeout)

	results, err := discovery.Scan(ctx, lineup.NewClient(config.DefaultFetchTimeout*time.Second), timeout)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(results)
	}

	if len(results) == 0 {
		fmt.Println("No tuners found.")
		fmt.Println()
		fmt.Println("Troubleshooting:")
		fmt.Println("  - Ensure the tuner is powered on and on the same subnet")
		fmt.Println("  - Check that multicast traffic is not filtered by the network")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Add the device to static_devices in the daemon config if it is routed")
		return nil
	}

	fmt.Printf("%-10s %-18s %-24s %-12s %s\n", "ID", "ADDRESS", "NAME", "MODEL", "TUNERS")
	for _, r := range results {
		fmt.Printf("%-10s %-18s %-24s %-12s %d\n", r.DeviceID, r.Address, r.FriendlyName, r.ModelNumber, r.TunerCount)
	}
	fmt.Printf("\n%d tuner(s) found.\n", len(results))
	return nil
}

// devicesCmd lists the daemon's device table.
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices known to the daemon",
	Example: `  # List devices of the local daemon
  tunerbridge devices

  # Query a daemon on another host
  tunerbridge devices --addr 192.168.1.10:7780`,
	RunE: runDevices,
}

func runDevices(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	devs, err := client.New(daemonAddr).Devices(ctx)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(devs)
	}

	if len(devs) == 0 {
		fmt.Println("No devices known. Run 'tunerbridge discover' to trigger a scan.")
		return nil
	}

	fmt.Printf("%-8s %-10s %-18s %-24s %-10s %s\n", "PRESENT", "ID", "ADDRESS", "NAME", "LAST SYNC", "LAST SEEN")
	for _, d := range devs {
		present := "yes"
		if !d.Present {
			present = "no"
		}
		sync := "never"
		if !d.LastSynced.IsZero() {
			sync = d.LastSynced.Format("15:04:05")
		}
		fmt.Printf("%-8s %-10s %-18s %-24s %-10s %s\n",
			present, d.ID, d.Address, d.FriendlyName, sync, d.LastSeen.Format("15:04:05"))
	}
	return nil
}

// sourcesCmd lists the daemon's registered sources.
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List sources registered by the daemon",
	Example: `  # List registered sources
  tunerbridge sources

  # Machine-readable output
  tunerbridge sources --format json`,
	RunE: runSources,
}

func runSources(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	srcs, err := client.New(daemonAddr).Sources(ctx)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(srcs)
	}

	if len(srcs) == 0 {
		fmt.Println("No sources registered.")
		return nil
	}

	fmt.Printf("%-22s %-36s %s\n", "ORIGIN", "NAME", "STREAM")
	for _, s := range srcs {
		fmt.Printf("%-22s %-36s %s\n", s.Origin.String(), s.DisplayName, s.StreamURL)
	}
	fmt.Printf("\n%d source(s) registered.\n", len(srcs))
	return nil
}

// refreshCmd asks the daemon for a full refresh pass.
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Request a full lineup refresh",
	Long: `Ask the daemon to re-fetch every device's lineup and reconcile the
source registry. If a pass is already running, the request is queued and
coalesced with any other pending requests.`,
	RunE: runRefresh,
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	triggered, err := client.New(daemonAddr).Refresh(ctx)
	if err != nil {
		return err
	}
	if triggered {
		fmt.Println("Refresh pass queued.")
	} else {
		fmt.Println("A refresh is already pending; request coalesced.")
	}
	return nil
}

// discoverCmd asks the daemon for an immediate discovery round.
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Request an immediate discovery round",
	Long: `Ask the daemon to scan for devices now instead of waiting for the next
periodic round. Newly found devices are refreshed automatically.`,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	triggered, err := client.New(daemonAddr).Discover(ctx)
	if err != nil {
		return err
	}
	if triggered {
		fmt.Println("Discovery round queued.")
	} else {
		fmt.Println("A discovery round is already pending; request coalesced.")
	}
	return nil
}

// watchCmd opens the live dashboard.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch devices and sources live",
	Long: `Open an interactive view of the daemon's device table, registered
sources, and recent registry activity. Press r to request a refresh,
d to request discovery, q to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Run(daemonAddr)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
