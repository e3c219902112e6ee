/*
Package observability provides Prometheus collectors for the engine bridge.

It records how engine loads end, how long each execute call takes per return
code, and how many scratch buffers are currently borrowed from the arena.

# Usage

	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	b := bridge.New(rt, bridge.WithMetrics(m))

A nil *Metrics is valid and records nothing.
*/
package observability
