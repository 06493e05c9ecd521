package scrape

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// scrapeRuns counts completed scraper runs by outcome ("ok"/"error").
	scrapeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "golunch_scrape_runs_total",
		Help: "The total number of completed scraper runs by outcome.",
	}, []string{"scraper", "outcome"})
	// scrapeDuration observes how long one scraper run takes.
	scrapeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "golunch_scrape_duration_seconds",
		Help:    "Duration of one scraper run.",
		Buckets: prometheus.DefBuckets,
	}, []string{"scraper"})
	// applyFailures counts results that could not be written to the store.
	applyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "golunch_apply_failures_total",
		Help: "The total number of scrape results that failed to persist.",
	})
	// busLagged counts commands dropped for slow subscribers.
	busLagged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "golunch_bus_lagged_total",
		Help: "The total number of commands dropped due to slow subscribers.",
	})
)
