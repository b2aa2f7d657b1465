package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/ithorft/internal/discovery"
	"github.com/muurk/ithorft/internal/identity"
	"github.com/muurk/ithorft/internal/pairing"
	"github.com/muurk/ithorft/internal/protocol"
	"github.com/muurk/ithorft/internal/session"
	"github.com/muurk/ithorft/internal/transport"
	"github.com/muurk/ithorft/internal/ui"
)

// Command flags
var (
	statusTimeout   time.Duration
	selfTestTimeout time.Duration
	scanTimeout     time.Duration
)

func init() {
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(identityCmd)
	rootCmd.AddCommand(selfTestCmd)
	rootCmd.AddCommand(discoverCmd)

	identityCmd.AddCommand(identityShowCmd)
	identityCmd.AddCommand(identityResetCmd)

	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 10*time.Second, "How long to wait for the unit to answer")
	selfTestCmd.Flags().DurationVar(&selfTestTimeout, "timeout", transport.DefaultSelfTestTimeout, "How long to wait for the version banner")
	discoverCmd.Flags().DurationVar(&scanTimeout, "timeout", 0, "mDNS scan timeout (default from config)")
}

// pairCmd runs the bind handshake
var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Pair with a ventilation unit",
	Long: `Pair this virtual remote with an Itho ventilation unit.

Put the unit in pairing mode first (usually by power cycling it), then run
this command within the unit's pairing window. A fresh remote address is
drawn for every attempt, and addresses used before are never reused.

A successful pairing replaces the stored identity.`,
	Example: `  ithorft pair --gateway /dev/ttyUSB0`,
	RunE:    runPair,
}

func runPair(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctrl, gw, err := newSession(ctx, nil)
	if err != nil {
		return err
	}
	defer gw.Close()

	remote, err := ctrl.StartPairing(ctx)
	if err != nil {
		return fmt.Errorf("failed to start pairing: %w", err)
	}

	fmt.Println(ui.NewHeader("Pairing", "ithorft pair",
		ui.Field{Key: "Gateway", Value: gw.Name()},
		ui.Field{Key: "Remote", Value: remote.String()},
		ui.Field{Key: "Step timeout", Value: cfg.PairingTimeout.String()},
	).Render())
	fmt.Println("Waiting for the unit to answer...")

	for {
		ev, err := ctrl.PollOnce(ctx)
		if err != nil {
			ctrl.CancelPairing()
			return err
		}
		if ev.Kind != session.EventPairing || ev.Pairing == nil {
			continue
		}

		switch ev.Pairing.State {
		case pairing.StateConfirming:
			fmt.Printf("Unit %s answered, confirming...\n", ev.Pairing.Unit)
		case pairing.StatePaired:
			fmt.Println(ui.RenderSuccess("Paired",
				ui.Field{Key: "Remote", Value: ev.Pairing.Remote.String()},
				ui.Field{Key: "Unit", Value: ev.Pairing.Unit.String()},
				ui.Field{Key: "Identity file", Value: cfg.IdentityFile},
			))
			return nil
		default:
			fmt.Println(ui.RenderFailure("Pairing failed", ev.Err, pairingTips(ev.Err)...))
			return errors.New("pairing failed")
		}
	}
}

func pairingTips(err error) []string {
	switch {
	case errors.Is(err, protocol.ErrPairingTimeout):
		return []string{
			"Power cycle the unit and run 'ithorft pair' within its pairing window",
			"Move the gateway closer to the unit",
			"Check the gateway with 'ithorft selftest'",
		}
	case errors.Is(err, protocol.ErrHandshakeMismatch):
		return []string{"Another unit answered; make sure only one unit is in pairing mode"}
	default:
		return []string{"Check that the identity file location is writable"}
	}
}

// sendCmd transmits a button press
var sendCmd = &cobra.Command{
	Use:       "send <" + strings.Join(protocol.CommandNames(), "|") + ">",
	Short:     "Send a fan command to the paired unit",
	Args:      cobra.ExactArgs(1),
	ValidArgs: protocol.CommandNames(),
	Example: `  # Back to demand control
  ithorft send auto

  # Boost for 20 minutes
  ithorft send timer20`,
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	command, err := protocol.ParseCommand(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	ctrl, gw, err := newSession(ctx, nil)
	if err != nil {
		return err
	}
	defer gw.Close()

	if err := ctrl.Send(ctx, command); err != nil {
		if errors.Is(err, protocol.ErrNotPaired) {
			return fmt.Errorf("%w: run 'ithorft pair' first", err)
		}
		return err
	}

	fmt.Printf("Sent %s to %s\n", command, ctrl.Identity().Unit)
	return nil
}

// statusCmd requests and prints one status report
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Request the unit's ventilation status",
	Long: `Ask the paired unit for a status report and print it.

The unit also broadcasts its status on its own every few minutes; use
'ithorft monitor' to follow those.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ctrl, gw, err := newSession(ctx, nil)
	if err != nil {
		return err
	}
	defer gw.Close()

	if err := ctrl.RequestStatus(ctx); err != nil {
		if errors.Is(err, protocol.ErrNotPaired) {
			return fmt.Errorf("%w: run 'ithorft pair' first", err)
		}
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	for {
		ev, err := ctrl.PollOnce(waitCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("no status from %s within %s", ctrl.Identity().Unit, statusTimeout)
			}
			return err
		}
		if ev.Kind == session.EventStatus {
			fmt.Println(ui.RenderStatus(ev.Status))
			return nil
		}
	}
}

// identityCmd groups the identity subcommands
var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Show or reset the stored remote identity",
}

var identityShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := identity.NewFileStore(cfg.IdentityFile)
		id, err := store.LoadIdentity()
		switch {
		case errors.Is(err, identity.ErrNotFound):
			id = protocol.Identity{Status: protocol.StatusUnpaired}
		case err != nil:
			return err
		}
		fmt.Println(ui.RenderIdentity(id))
		return nil
	},
}

var identityResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the paired unit",
	Long: `Forget the paired unit. The remote addresses used so far are kept so
the next pairing draws a new one. The unit itself keeps the old remote in
its memory until it is cleared on the unit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Forget only touches the store, so no gateway is opened
		ctrl, err := session.New(nil, identity.NewFileStore(cfg.IdentityFile), session.Options{})
		if err != nil {
			return err
		}
		if err := ctrl.Forget(); err != nil {
			return err
		}
		fmt.Println(ui.RenderIdentity(ctrl.Identity()))
		return nil
	},
}

// selfTestCmd checks the gateway firmware
var selfTestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Check that the gateway runs a supported evofw3 version",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		gw, err := openGateway(ctx)
		if err != nil {
			return err
		}
		defer gw.Close()

		v, err := transport.SelfTest(ctx, gw, cfg.MinGatewayVersion, selfTestTimeout)
		if err != nil {
			fmt.Println(ui.RenderFailure("Gateway self-test failed", err,
				"Check that the stick runs evofw3 firmware",
				"Check the baud rate (--baud)",
				"Update evofw3 to "+cfg.MinGatewayVersion+" or newer",
			))
			return errors.New("self-test failed")
		}

		fmt.Println(ui.RenderSuccess("Gateway ready",
			ui.Field{Key: "Gateway", Value: gw.Name()},
			ui.Field{Key: "Firmware", Value: "evofw3 " + v},
			ui.Field{Key: "Minimum", Value: cfg.MinGatewayVersion},
		))
		return nil
	},
}

// discoverCmd lists candidate gateways
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List serial ports and network gateway bridges",
	Long: `List local serial ports and evofw3 network bridges advertised over mDNS.

Pass one of the listed values with --gateway or store it in the config file.`,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ports, err := transport.ListSerialPorts()
	if err != nil {
		fmt.Printf("Could not list serial ports: %v\n", err)
	}
	fmt.Println("Serial ports:")
	if len(ports) == 0 {
		fmt.Println("  (none)")
	}
	for _, p := range ports {
		fmt.Printf("  %s\n", p)
	}
	fmt.Println()

	scanner := &discovery.Scanner{
		Service: cfg.Discovery.Service,
		Domain:  cfg.Discovery.Domain,
		Timeout: cfg.Discovery.Timeout,
	}
	if scanTimeout > 0 {
		scanner.Timeout = scanTimeout
	}

	fmt.Printf("Scanning for network bridges (%s)...\n", scanner.Timeout)
	gateways, err := scanner.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(gateways) == 0 {
		fmt.Println("  (none)")
		return nil
	}
	for i, gw := range gateways {
		fmt.Printf("%d. %s\n", i+1, gw.Instance)
		fmt.Printf("   URL:     %s\n", gw.URL())
		if v := gw.Version(); v != "" {
			fmt.Printf("   Version: %s\n", v)
		}
	}
	return nil
}
