// Package metrics exposes delivery counters and latencies to prometheus.
//
// When metrics are disabled New returns Noop, so callers never check the flag.
package metrics
