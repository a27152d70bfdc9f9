package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dexgraph_cache_hits_total",
		Help: "Total number of graph queries served from the cache.",
	}, []string{"method"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dexgraph_cache_misses_total",
		Help: "Total number of graph queries that fell through to the database.",
	}, []string{"method"})

	CacheEntryBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dexgraph_cache_entry_bytes",
		Help:    "Size of serialized cache entries written to the store.",
		Buckets: prometheus.ExponentialBuckets(64, 4, 10),
	})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dexgraph_query_seconds",
		Help:    "Time spent executing a graph database query.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	IngestFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexgraph_ingest_files_total",
		Help: "Total number of source files parsed during ingest.",
	})

	IngestErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dexgraph_ingest_errors_total",
		Help: "Total number of files skipped during ingest due to parse errors.",
	})

	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dexgraph_ingest_seconds",
		Help:    "Wall time of one full ingest run.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
