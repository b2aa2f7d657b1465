// Package server serves the HTTP endpoints of "ithorft monitor".
//
// Endpoints:
//
//	/metrics   Prometheus exposition of traffic counters and the latest status
//	/healthz   liveness probe, always "ok"
//
// # Usage Example
//
//	srv := server.New(server.Config{Addr: ":9120"}, collector)
//	// Run blocks until ctx is cancelled, then shuts down gracefully
//	if err := srv.Run(ctx); err != nil {
//	    return err
//	}
package server
