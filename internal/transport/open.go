package transport

import (
	"context"
	"strings"
)

// Open connects to the gateway named by target: a ws:// or wss:// URL
// selects the WebSocket bridge, anything else is a serial port path.
func Open(ctx context.Context, target string, baud int) (Gateway, error) {
	if IsWebSocketURL(target) {
		ws, err := DialWebSocket(ctx, target)
		if err != nil {
			return nil, err
		}
		return ws, nil
	}

	conn, err := OpenSerial(target, baud)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// IsWebSocketURL reports whether target names a WebSocket bridge
func IsWebSocketURL(target string) bool {
	return strings.HasPrefix(target, "ws://") || strings.HasPrefix(target, "wss://")
}
