// Package metrics holds the prometheus collectors of the catalog pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SourceRequests counts catalog source calls by source name and outcome
	// (ok, unavailable, cancelled).
	SourceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_source_requests_total",
			Help: "Catalog source calls by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// CascadeSteps observes how many sources a cascade visited before stopping.
	CascadeSteps = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_cascade_steps",
			Help:    "Sources visited per aggregation run",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 12, 16},
		},
		[]string{"result"},
	)

	// SessionsSuperseded counts sessions cancelled by a newer request on the same surface.
	SessionsSuperseded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sessions_superseded_total",
			Help: "Sessions cancelled by a newer request for the same surface",
		},
		[]string{"surface"},
	)

	// CacheLookups counts catalog response cache lookups by result (hit, miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_lookups_total",
			Help: "Catalog response cache lookups",
		},
		[]string{"result"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
