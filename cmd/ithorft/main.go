// Ithorft is a virtual Itho RFT remote for heat-recovery ventilation units.
//
// It drives an evofw3 radio gateway, attached over USB serial or exposed by
// a network bridge over WebSocket, to pair with a unit, send fan commands
// and decode the unit's status broadcasts.
//
// Usage:
//
//	ithorft [command] [flags]
//
// See 'ithorft --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/ithorft/internal/config"
	"github.com/muurk/ithorft/internal/logging"
	"github.com/muurk/ithorft/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	gatewayArg string
	baudArg    int
	logLevel   string
)

// cfg is loaded before every command runs
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ithorft",
	Short: "Virtual Itho RFT remote",
	Long: `A virtual RFT remote for Itho heat-recovery ventilation units.

ithorft talks to the unit through an evofw3 radio gateway. The gateway is
either a USB serial stick (e.g. /dev/ttyUSB0) or a network bridge reached
over WebSocket (e.g. ws://192.168.1.20:8080/evofw3).

Pair once with 'ithorft pair', then send fan commands with 'ithorft send'.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Example: `  # Pair with the unit (put the unit in pairing mode first)
  ithorft pair --gateway /dev/ttyUSB0

  # Switch the fan to high
  ithorft send high

  # Watch status broadcasts and serve metrics
  ithorft monitor --metrics-addr :9120`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("gateway") {
			cfg.Gateway = gatewayArg
		}
		if flags.Changed("baud") {
			cfg.Baud = baudArg
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		return logging.Initialize(cfg.LogLevel)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/ithorft/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&gatewayArg, "gateway", "", "Serial port or ws:// bridge URL (overrides config and "+config.GatewayEnvVar+")")
	rootCmd.PersistentFlags().IntVar(&baudArg, "baud", 0, "Serial baud rate (default 115200)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// No config needed to print the version
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ithorft %s (commit: %s, %s)\n", version.Version, version.Commit, version.Platform())
	},
}
