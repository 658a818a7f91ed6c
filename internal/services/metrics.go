package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// resolutionsTotal counts resolved items by outcome.
	// Labels: status (matched, ambiguous, no_match, missing_quantity)
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nutrilog",
		Subsystem: "resolver",
		Name:      "resolutions_total",
		Help:      "Total resolved food items by outcome",
	}, []string{"status"})

	// lookupFailuresTotal counts catalog failures by tier.
	lookupFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nutrilog",
		Subsystem: "resolver",
		Name:      "lookup_failures_total",
		Help:      "Total catalog lookup failures by match tier",
	}, []string{"tier"})

	// lookupSeconds measures catalog latency per tier.
	lookupSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nutrilog",
		Subsystem: "resolver",
		Name:      "catalog_lookup_seconds",
		Help:      "Catalog lookup latency by match tier",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
	}, []string{"tier"})

	// catalogCacheTotal counts catalog cache lookups.
	// Labels: result (hit, miss)
	catalogCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nutrilog",
		Subsystem: "catalog",
		Name:      "cache_lookups_total",
		Help:      "Catalog cache lookups by result",
	}, []string{"result"})
)
