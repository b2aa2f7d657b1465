// Package discovery finds network gateway bridges with mDNS.
//
// A bridge that exposes an evofw3 stick over WebSocket advertises itself
// as "_evofw3._tcp" (configurable). The TXT record may carry "path",
// "version" and "tls=1". Gateway.URL builds the ws:// or wss:// address
// that the transport package dials.
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	gateways, err := scanner.Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, gw := range gateways {
//	    fmt.Println(gw.Instance, gw.URL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Bridges must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
