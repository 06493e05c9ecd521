package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal tracks outbound HTTP requests actually sent.
	requestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "golunch_http_requests_total",
		Help: "The total number of HTTP requests sent.",
	})
	// requestErrors tracks requests that failed or returned a bad status.
	requestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "golunch_http_request_errors_total",
		Help: "The total number of failed HTTP requests.",
	})
	// cacheHits tracks responses served from the cache.
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "golunch_cache_hits_total",
		Help: "The total number of responses served from the cache.",
	})
	// cacheMisses tracks requests that had to go to the network.
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "golunch_cache_misses_total",
		Help: "The total number of cache misses.",
	})
	// cacheEvictions tracks entries evicted under capacity pressure.
	cacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "golunch_cache_evictions_total",
		Help: "The total number of cache entries evicted at capacity.",
	})
)
