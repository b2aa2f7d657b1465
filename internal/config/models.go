package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/muurk/ithorft/internal/discovery"
	"github.com/muurk/ithorft/internal/transport"
)

// Environment overrides
const (
	GatewayEnvVar = "ITHORFT_GATEWAY"
	BaudEnvVar    = "ITHORFT_BAUD"
)

// Config is the user configuration file.
type Config struct {
	Version int `yaml:"version"`

	// Gateway is a serial port path or a ws:// / wss:// bridge URL
	Gateway string `yaml:"gateway,omitempty"`
	Baud    int    `yaml:"baud"`

	PairingTimeout    time.Duration `yaml:"pairing_timeout"`
	MinGatewayVersion string        `yaml:"min_gateway_version"`

	LogLevel     string `yaml:"log_level,omitempty"`
	IdentityFile string `yaml:"identity_file,omitempty"`

	// CaptureDir enables traffic capture when set
	CaptureDir  string `yaml:"capture_dir,omitempty"`
	CaptureKeep int    `yaml:"capture_keep,omitempty"`

	// MetricsAddr enables the Prometheus endpoint for "monitor" when set
	MetricsAddr string `yaml:"metrics_addr,omitempty"`

	Discovery Discovery `yaml:"discovery"`
}

// Discovery configures mDNS lookup of network gateway bridges
type Discovery struct {
	Service string        `yaml:"service"`
	Domain  string        `yaml:"domain"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Version:           1,
		Baud:              transport.DefaultBaud,
		PairingTimeout:    60 * time.Second,
		MinGatewayVersion: transport.DefaultMinVersion,
		CaptureKeep:       transport.DefaultCaptureKeep,
		Discovery: Discovery{
			Service: discovery.DefaultServiceType,
			Domain:  discovery.ServiceDomain,
			Timeout: discovery.DefaultScanTimeout,
		},
	}
}

// ApplyEnv overrides fields from the environment
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(GatewayEnvVar)); v != "" {
		c.Gateway = v
	}
	if v := strings.TrimSpace(os.Getenv(BaudEnvVar)); v != "" {
		var baud int
		if _, err := fmt.Sscanf(v, "%d", &baud); err == nil {
			c.Baud = baud
		}
	}
}

var validLogLevels = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}

// Validate checks the configuration for values the session cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Baud <= 0 {
		problems = append(problems, fmt.Sprintf("baud must be positive, got %d", c.Baud))
	}
	if c.PairingTimeout < time.Second {
		problems = append(problems, fmt.Sprintf("pairing_timeout must be at least 1s, got %s", c.PairingTimeout))
	}
	if !validLogLevels[c.LogLevel] {
		problems = append(problems, fmt.Sprintf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}
	if c.CaptureKeep < 0 {
		problems = append(problems, fmt.Sprintf("capture_keep cannot be negative, got %d", c.CaptureKeep))
	}
	if c.Discovery.Timeout < 0 {
		problems = append(problems, "discovery.timeout cannot be negative")
	}
	if c.Discovery.Service != "" && !strings.HasPrefix(c.Discovery.Service, "_") {
		problems = append(problems, fmt.Sprintf("discovery.service must look like _name._tcp, got %q", c.Discovery.Service))
	}
	if c.MinGatewayVersion != "" && strings.Count(c.MinGatewayVersion, ".") != 2 {
		problems = append(problems, fmt.Sprintf("min_gateway_version must be X.Y.Z, got %q", c.MinGatewayVersion))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RequireGateway returns an error when no gateway is configured
func (c *Config) RequireGateway() error {
	if c.Gateway == "" {
		return fmt.Errorf("no gateway configured: use --gateway, %s, or set gateway in the config file", GatewayEnvVar)
	}
	return nil
}
