// Package metrics holds the server's Prometheus instrumentation: counters
// and gauges for connection lifecycle, command dispatch, protocol errors,
// and incremental rehash work. Registration happens once at package init;
// the HTTP exposition server is started separately by the caller so that
// tests and embedders can opt out of it.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ActiveConnections tracks the number of currently open connections.
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "loopkv",
		Name:      "active_connections",
		Help:      "Number of currently open client connections.",
	})

	// CommandsTotal counts dispatched commands by verb and outcome.
	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loopkv",
		Name:      "commands_total",
		Help:      "Total commands dispatched, by verb and outcome.",
	}, []string{"verb", "outcome"})

	// ProtocolErrorsTotal counts fatal protocol violations that resulted
	// in a connection being destroyed.
	ProtocolErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "loopkv",
		Name:      "protocol_errors_total",
		Help:      "Total fatal protocol violations across all connections.",
	})

	// RehashMovesTotal counts incremental rehash node moves performed by
	// the store, cumulative across the process lifetime.
	RehashMovesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "loopkv",
		Name:      "rehash_moves_total",
		Help:      "Total node moves performed by incremental rehashing.",
	})
)

func init() {
	prometheus.MustRegister(ActiveConnections, CommandsTotal, ProtocolErrorsTotal, RehashMovesTotal)
}
