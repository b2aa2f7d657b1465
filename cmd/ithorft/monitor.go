package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/ithorft/internal/metrics"
	"github.com/muurk/ithorft/internal/protocol"
	"github.com/muurk/ithorft/internal/server"
	"github.com/muurk/ithorft/internal/session"
)

// Monitor flags
var (
	metricsAddr  string
	pollInterval time.Duration
	showIgnored  bool
)

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9120)")
	monitorCmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "Request a status report at this interval (0 waits for broadcasts)")
	monitorCmd.Flags().BoolVar(&showIgnored, "show-ignored", false, "Also print frames from other installations")
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Follow the unit's status broadcasts",
	Long: `Listen on the gateway and print every status report from the paired unit.

With --metrics-addr the latest status and traffic counters are exported
for Prometheus at /metrics. Set capture_dir in the config file to record
all gateway traffic as JSON lines.`,
	Example: `  ithorft monitor
  ithorft monitor --metrics-addr :9120 --poll-interval 5m`,
	RunE: runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if metricsAddr == "" {
		metricsAddr = cfg.MetricsAddr
	}

	var collector *metrics.Collector
	if metricsAddr != "" {
		collector = metrics.NewCollector()
	}

	ctrl, gw, err := newSession(cmd.Context(), collector)
	if err != nil {
		return err
	}
	defer gw.Close()

	if !ctrl.Identity().IsPaired() {
		fmt.Println("Not paired: showing traffic only. Run 'ithorft pair' to bind to a unit.")
	}
	fmt.Printf("Monitoring %s (Ctrl+C to stop)\n", gw.Name())

	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		return monitorLoop(ctx, ctrl)
	})

	if pollInterval > 0 {
		g.Go(func() error {
			return requestLoop(ctx, ctrl, pollInterval)
		})
	}

	if collector != nil {
		srv := server.New(server.Config{Addr: metricsAddr}, collector)
		if err := srv.Listen(); err != nil {
			return err
		}
		g.Go(func() error {
			return srv.Run(ctx)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// monitorLoop prints events until ctx is done or the gateway fails
func monitorLoop(ctx context.Context, ctrl *session.Controller) error {
	for {
		ev, err := ctrl.PollOnce(ctx)
		if err != nil {
			return err
		}

		now := time.Now().Format(time.TimeOnly)
		switch ev.Kind {
		case session.EventStatus:
			fmt.Printf("%s  %s\n", now, formatStatusLine(ev.Status))
		case session.EventUnknown:
			fmt.Printf("%s  unknown %s from unit\n", now, ev.Frame.Code)
		case session.EventIgnored:
			if showIgnored {
				fmt.Printf("%s  %s\n", now, ev.Frame)
			}
		}
	}
}

// requestLoop asks the unit for status on every tick
func requestLoop(ctx context.Context, ctrl *session.Controller, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := ctrl.RequestStatus(ctx); err != nil && !errors.Is(err, protocol.ErrNotPaired) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// formatStatusLine renders a status record on one line for the monitor log
func formatStatusLine(rec *protocol.StatusRecord) string {
	line := fmt.Sprintf("mode=%s", rec.SpeedMode)
	if rec.Temperature != nil {
		line += fmt.Sprintf(" temp=%s", rec.Temperature)
	}
	if rec.ExhaustFanSpeed != nil {
		line += fmt.Sprintf(" exhaust_fan=%.1f%%", *rec.ExhaustFanSpeed)
	}
	if rec.InletFanSpeed != nil {
		line += fmt.Sprintf(" inlet_fan=%.1f%%", *rec.InletFanSpeed)
	}
	if rec.RemainingTime > 0 {
		line += fmt.Sprintf(" timer=%dm", rec.RemainingTime)
	}
	if rec.FilterDirty {
		line += " filter=dirty"
	}
	if rec.FaultActive {
		line += " FAULT"
	}
	return line
}
