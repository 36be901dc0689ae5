package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	RecomputeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aspectwatch_recompute_seconds",
		Help:    "Time spent on one full recomputation, by stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	RecomputeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aspectwatch_recompute_total",
		Help: "Total number of recomputations, by outcome.",
	}, []string{"outcome"})

	RecomputeThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aspectwatch_recompute_throttled_total",
		Help: "Total number of recompute triggers dropped by the rate limiter.",
	})

	AspectsCurrent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "aspectwatch_aspects",
		Help: "Number of aspects in the current snapshot, by trend.",
	}, []string{"trend"})

	ConfigReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aspectwatch_config_reloads_total",
		Help: "Total number of configuration reloads, by outcome.",
	}, []string{"outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aspectwatch_watcher_events_total",
		Help: "Total number of file system events received by the config watcher.",
	})

	HistoryWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aspectwatch_history_writes_total",
		Help: "Total number of snapshot journal writes, by outcome.",
	}, []string{"outcome"})
)
