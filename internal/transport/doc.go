// Package transport connects the session to a radio gateway.
//
// Two links are supported: a USB/serial evofw3 stick opened with
// go.bug.st/serial, and a WebSocket bridge (ws:// or wss:// URL) that relays
// the same ASCII lines over the network. Both are exposed as a Gateway that
// reads and writes whole lines.
//
// Capture wraps any Gateway and records each line in a daily JSONL file.
// SelfTest checks the firmware version before a session starts.
package transport
