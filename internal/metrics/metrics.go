// Package metrics defines the Prometheus collectors exported by relic-posts.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "relic_posts"

// Cache results.
const (
	ResultHit    = "hit"
	ResultMiss   = "miss"
	ResultShared = "shared"
	ResultError  = "error"
)

var (
	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Artifact cache lookups by result",
		},
		[]string{"cache", "result"},
	)

	CacheLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_load_duration_seconds",
			Help:      "Duration of artifact fetch and parse",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"cache"},
	)

	ArtifactBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_builds_total",
			Help:      "Artifact builds by artifact, language and status",
		},
		[]string{"artifact", "lang", "status"},
	)

	ArtifactDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_documents",
			Help:      "Documents in the last built artifact",
		},
		[]string{"artifact", "lang"},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Search and related-post queries by kind, language and status",
		},
		[]string{"kind", "lang", "status"},
	)

	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected HTTP requests by auth type",
		},
		[]string{"type"},
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			CacheRequestsTotal,
			CacheLoadDuration,
			ArtifactBuildsTotal,
			ArtifactDocuments,
			QueriesTotal,
			AuthFailuresTotal,
		)
	})
}
