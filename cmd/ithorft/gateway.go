package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/ithorft/internal/identity"
	"github.com/muurk/ithorft/internal/logging"
	"github.com/muurk/ithorft/internal/metrics"
	"github.com/muurk/ithorft/internal/session"
	"github.com/muurk/ithorft/internal/transport"
)

// openGateway opens the configured gateway, wrapped in a traffic capture
// when capture_dir is set.
func openGateway(ctx context.Context) (transport.Gateway, error) {
	if err := cfg.RequireGateway(); err != nil {
		return nil, err
	}

	gw, err := transport.Open(ctx, cfg.Gateway, cfg.Baud)
	if err != nil {
		return nil, err
	}

	if cfg.CaptureDir == "" {
		return gw, nil
	}

	capture, err := transport.NewCapture(gw, cfg.CaptureDir, cfg.CaptureKeep)
	if err != nil {
		gw.Close()
		return nil, fmt.Errorf("failed to enable capture: %w", err)
	}
	logging.Info("Capturing gateway traffic",
		zap.String("dir", cfg.CaptureDir),
		zap.Int("keep", cfg.CaptureKeep),
	)
	return capture, nil
}

// newSession opens the gateway and builds a session controller on it.
// The caller closes the returned gateway.
func newSession(ctx context.Context, collector *metrics.Collector) (*session.Controller, transport.Gateway, error) {
	gw, err := openGateway(ctx)
	if err != nil {
		return nil, nil, err
	}

	ctrl, err := session.New(gw, identity.NewFileStore(cfg.IdentityFile), session.Options{
		Gateway:        gw.Name(),
		PairingTimeout: cfg.PairingTimeout,
		Metrics:        collector,
	})
	if err != nil {
		gw.Close()
		return nil, nil, err
	}
	return ctrl, gw, nil
}
