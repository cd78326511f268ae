package reaper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharethis_reaper_ticks_total",
		Help: "Number of completed reaper ticks.",
	})

	tickFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharethis_reaper_tick_failures_total",
		Help: "Number of reaper ticks that failed, by phase.",
	}, []string{"phase"})

	keysSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharethis_reaper_keys_swept_total",
		Help: "Number of expired records removed from the metadata store.",
	})

	tickDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sharethis_reaper_tick_duration_seconds",
		Help:    "Duration of reaper ticks in seconds.",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
)

// Tick phases used as the failure label.
const (
	phaseMetadata = "metadata"
	phaseObjects  = "objects"
)
