package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "runtime_analytics"

// Metrics holds all Prometheus metrics for ingestion and query dispatch.
type Metrics struct {
	LinesTotal        *prometheus.CounterVec
	RowsInserted      prometheus.Counter
	DuplicatesSkipped prometheus.Counter
	FailedChunks      prometheus.Counter
	FilesProcessed    prometheus.Counter
	PromptsTotal      *prometheus.CounterVec
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	LatestRunDate     prometheus.Gauge
}

// New registers the metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		LinesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "lines_total",
			Help:      "Total number of log lines read by status.",
		}, []string{"status"}), // status: parsed, rejected
		RowsInserted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "rows_inserted_total",
			Help:      "Total number of job runs written to the store.",
		}),
		DuplicatesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "duplicates_skipped_total",
			Help:      "Total number of job runs skipped because their dedup key was already stored.",
		}),
		FailedChunks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "failed_chunks_total",
			Help:      "Total number of insert chunks rolled back and skipped.",
		}),
		FilesProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "files_processed_total",
			Help:      "Total number of log files moved to the processed directory.",
		}),
		PromptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "prompts_total",
			Help:      "Total number of prompts and reports by outcome.",
		}, []string{"kind", "outcome"}), // outcome: ok, unresolved, unknown_function, no_data, error
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of result cache hits.",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of result cache misses.",
		}),
		LatestRunDate: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "latest_run_date_seconds",
			Help:      "Latest run_date in the store as a unix timestamp.",
		}),
	}
}
