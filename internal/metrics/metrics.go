package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicksRunTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "landlord_ticks_run_total",
		Help: "The total number of per-game ticks completed, by cadence",
	}, []string{"cadence"})
	TickErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "landlord_tick_errors_total",
		Help: "The total number of per-game ticks that failed, by cadence",
	}, []string{"cadence"})
	DividendsPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "landlord_dividends_paid_total",
		Help: "The total number of quarterly dividend payouts credited",
	})
	PropertyEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "landlord_property_events_total",
		Help: "The total number of nightly property events applied, by kind",
	}, []string{"kind"})
	SweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "landlord_sweep_duration_seconds",
		Help:    "Duration of a full sweep over running games, by cadence",
		Buckets: prometheus.DefBuckets,
	}, []string{"cadence"})
)
