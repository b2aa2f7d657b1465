package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Gateway represents a network gateway bridge discovered via mDNS
type Gateway struct {
	// Instance is the advertised service instance name (e.g., "evofw3-kitchen")
	Instance string

	// Hostname is the mDNS hostname (e.g., "evofw3-kitchen.local.")
	Hostname string

	// IP is the bridge address, IPv4 preferred
	IP string

	// Port is the WebSocket port
	Port int

	// Metadata contains the mDNS TXT record data
	// Common fields: "path=/evofw3", "version=0.7.1", "tls=1"
	Metadata map[string]string

	// DiscoveredAt is when the gateway was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the gateway
func (g *Gateway) String() string {
	return fmt.Sprintf("Gateway %s (%s) at %s", g.Instance, g.Hostname, net.JoinHostPort(g.IP, strconv.Itoa(g.Port)))
}

// URL returns the WebSocket URL to pass as the gateway setting
func (g *Gateway) URL() string {
	scheme := "ws"
	if g.GetMetadata("tls") == "1" {
		scheme = "wss"
	}
	path := g.GetMetadata("path")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("%s://%s%s", scheme, net.JoinHostPort(g.IP, strconv.Itoa(g.Port)), path)
}

// Version returns the advertised firmware version, if any
func (g *Gateway) Version() string {
	return g.GetMetadata("version")
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (g *Gateway) GetMetadata(key string) string {
	if g.Metadata == nil {
		return ""
	}
	return g.Metadata[key]
}
