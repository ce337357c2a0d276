package catalogmetrics

import "github.com/prometheus/client_golang/prometheus"

// Keys for pgarchive metrics.
const (
	Fail = "fail"
	Ok   = "ok"
)

// Collectors for basebackup pipeline and catalog metrics.
var (
	BasebackupsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pgarchive_basebackups_started_total",
		Help: "Cumulative number of base backups registered in progress.",
	})
	BasebackupsFinishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pgarchive_basebackups_finished_total",
		Help: "Cumulative number of base backups finished, by status.",
	}, []string{"status"})
	TablespaceBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pgarchive_tablespace_bytes_total",
		Help: "Cumulative number of tablespace bytes streamed into archives.",
	})
	TablespacesStreamedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pgarchive_tablespaces_streamed_total",
		Help: "Cumulative number of tablespaces streamed.",
	})
	RetentionEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pgarchive_retention_evictions_total",
		Help: "Cumulative number of base backups evicted by retention policies.",
	})
	WALSegmentsRemovedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pgarchive_wal_segments_removed_total",
		Help: "Cumulative number of WAL segments removed by retention cleanup.",
	})
	WorkerProcesses = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pgarchive_worker_processes",
		Help: "Number of worker processes currently registered as running.",
	})
	CatalogTxTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pgarchive_catalog_tx_total",
		Help: "Cumulative number of catalog transactions, by outcome.",
	}, []string{"status"})
)

// ArchiveCollectors lists collectors used by the archiver.
func ArchiveCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		BasebackupsStartedTotal,
		BasebackupsFinishedTotal,
		TablespaceBytesTotal,
		TablespacesStreamedTotal,
		RetentionEvictionsTotal,
		WALSegmentsRemovedTotal,
		WorkerProcesses,
		CatalogTxTotal,
	}
}
