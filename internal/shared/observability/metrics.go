package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vtenr_fetch_seconds",
		Help:    "Time spent fetching one year's raw table from the provider.",
		Buckets: prometheus.DefBuckets,
	}, []string{"variant"})

	TidyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vtenr_tidy_seconds",
		Help:    "Time spent pivoting a raw table into tidy records.",
		Buckets: prometheus.DefBuckets,
	})

	ProviderErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vtenr_provider_errors_total",
		Help: "Total number of provider call failures by error code.",
	}, []string{"code"})

	YearsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vtenr_years_fetched_total",
		Help: "Total number of years fetched and tidied successfully.",
	})

	YearsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vtenr_years_failed_total",
		Help: "Total number of years that failed during aggregate fetches.",
	})

	RecordsReturnedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vtenr_records_returned_total",
		Help: "Total number of tidy records returned to callers.",
	})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vtenr_cache_hits_total",
		Help: "Total number of year fetches served from the local cache.",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vtenr_cache_misses_total",
		Help: "Total number of year fetches that went to the provider.",
	})

	CatalogRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vtenr_catalog_requests_total",
		Help: "Total number of available-years catalog queries.",
	})
)
