// Package logging provides structured logging for the ithorft remote.
//
// This package wraps a global zap logger with convenience functions for the
// protocol engine, the gateway transports and the command line tool.
//
// # Log Levels
//
//   - Debug: Gateway lines, malformed lines, ignored cross-talk frames
//   - Info: Pairing transitions, commands sent, gateway connections
//   - Warn: Discarded lines, unknown status frames, pairing timeouts
//   - Error: Persistence failures, transport failures
//
// # Structured Logging
//
//	logging.Info("Pairing complete",
//	    zap.Stringer("remote", remote),
//	    zap.Stringer("unit", unit),
//	)
//
// Gateway traffic:
//
//	logging.LogLine("/dev/ttyUSB0", "rx", line)
//
// # Configuration
//
// Logging is silent until initialized. The CLI calls
//
//	if err := logging.Initialize(level); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// An empty level falls back to the ITHORFT_LOG_LEVEL environment variable.
// Output goes to stderr so command output on stdout stays scriptable.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
