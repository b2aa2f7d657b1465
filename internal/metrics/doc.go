// Package metrics exposes Prometheus metrics for a running session:
// gateway traffic by outcome, pairing transitions, and the latest
// ventilation status as gauges.
package metrics
