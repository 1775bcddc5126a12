// Package metrics holds the Prometheus collectors shared across components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess    = "success"
	OutcomeInvalid    = "invalid"
	OutcomeNotFound   = "not_found"
	OutcomeConflict   = "conflict"
	OutcomeStoreError = "store_error"
)

var (
	mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weekplan",
		Subsystem: "activities",
		Name:      "mutations_total",
		Help:      "Activity create/update/delete requests by operation and outcome.",
	}, []string{"op", "outcome"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weekplan",
		Subsystem: "activities",
		Name:      "cache_lookups_total",
		Help:      "Lookups of the cached all-activities result set by result (hit or miss).",
	}, []string{"result"})

	cacheInvalidations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "weekplan",
		Subsystem: "activities",
		Name:      "cache_invalidations_total",
		Help:      "Invalidations of the cached all-activities result set.",
	})

	eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weekplan",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Activity change events handed to the publisher by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(mutations, cacheLookups, cacheInvalidations, eventsPublished)
}

// RecordMutation counts a mutation attempt.
func RecordMutation(op, outcome string) {
	mutations.WithLabelValues(op, outcome).Inc()
}

// RecordCacheLookup counts a lookup against the all-activities cache.
func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

func RecordCacheInvalidation() {
	cacheInvalidations.Inc()
}

func RecordEventPublished(err error) {
	if err != nil {
		eventsPublished.WithLabelValues("error").Inc()
		return
	}
	eventsPublished.WithLabelValues(OutcomeSuccess).Inc()
}
