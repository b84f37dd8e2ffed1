package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QueriesTotal counts façade calls by kind and outcome (ok, error, invalid).
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vi_queries_total",
			Help: "Total number of queries executed through the query façade",
		},
		[]string{"kind", "status"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vi_query_duration_seconds",
			Help:    "Duration of façade queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	DuplicateInsertsRewritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vi_duplicate_tolerant_inserts_total",
			Help: "Inserts rewritten to ignore uniqueness conflicts",
		},
		[]string{"table"},
	)

	SyncTablesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vi_sync_tables_total",
			Help: "Per-table reconciliation outcomes",
		},
		[]string{"table", "result"},
	)

	SyncPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vi_sync_pass_duration_seconds",
			Help:    "Duration of a full reconciliation pass",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	LowStockAlertsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vi_low_stock_alerts_total",
			Help: "Low-stock alerts raised",
		},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		QueriesTotal,
		QueryDuration,
		DuplicateInsertsRewritten,
		SyncTablesTotal,
		SyncPassDuration,
		LowStockAlertsTotal,
	}
}

// Register adds every collector to reg. Registering twice is not an error.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

func Handler() http.Handler {
	return promhttp.Handler()
}
