package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batchbook_sync_total",
		Help: "Sync attempts by result (ok, error, stale, local).",
	}, []string{"result"})

	syncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "batchbook_sync_duration_seconds",
		Help:    "Duration of a full push to the remote store.",
		Buckets: prometheus.DefBuckets,
	})

	syncInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "batchbook_sync_in_flight",
		Help: "Pushes currently running.",
	})
)
