package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// KV backend metrics
	KVOperations *prometheus.CounterVec
	KVLatency    *prometheus.HistogramVec

	// Backup metrics
	BackupsCreated  *prometheus.CounterVec
	BackupsRestored prometheus.Counter
	BackupIndexSize prometheus.Gauge

	// Operation log metrics
	OplogEntries  prometheus.Counter
	OplogFailures prometheus.Counter
}

// New creates and registers all application metrics
func New(namespace string) *Metrics {
	return &Metrics{
		KVOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kv_operations_total",
			Help:      "Total number of key-value backend operations",
		}, []string{"operation", "status"}),
		KVLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kv_operation_duration_seconds",
			Help:      "Key-value backend operation latency",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		BackupsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_created_total",
			Help:      "Total number of backups created, by type",
		}, []string{"type"}),
		BackupsRestored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_restored_total",
			Help:      "Total number of restore operations",
		}),
		BackupIndexSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backup_index_size",
			Help:      "Current number of entries in the backup index",
		}),
		OplogEntries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oplog_entries_total",
			Help:      "Total number of operation log entries written",
		}),
		OplogFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oplog_failures_total",
			Help:      "Total number of swallowed operation log write failures",
		}),
	}
}
