// Package metrics exposes Prometheus collectors for the URL insights service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	parseCacheLookupsTotal     *prometheus.CounterVec
	fetchRetriesTotal          prometheus.Counter
	fetchAttemptsTotal         *prometheus.CounterVec
	rateLimitRejectionsTotal   prometheus.Counter
	enrichFailuresTotal        *prometheus.CounterVec

	once sync.Once
)

// Init registers the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_http_requests_total",
				Help: "Total number of HTTP requests, labeled by route and code.",
			},
			[]string{"route", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insights_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"route"},
		)

		parseCacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_parse_cache_lookups_total",
				Help: "Cache lookup outcomes for parse requests.",
			},
			[]string{"outcome"},
		)

		fetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "insights_fetch_retries_total",
				Help: "Total fetch attempts retried after a transport error.",
			},
		)

		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_fetch_attempts_total",
				Help: "Total upstream fetch attempts, labeled by result.",
			},
			[]string{"result"},
		)

		rateLimitRejectionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "insights_ratelimit_rejections_total",
				Help: "Requests rejected by the per-client rate limiter.",
			},
		)

		enrichFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_enrich_failures_total",
				Help: "Enrichment sub-operations that degraded to a default.",
			},
			[]string{"op"},
		)
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one finished HTTP request.
func ObserveRequest(route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordCacheLookup counts a cache hit or miss on the parse path.
func RecordCacheLookup(hit bool) {
	if parseCacheLookupsTotal == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	parseCacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordFetchRetry counts a retried fetch attempt.
func RecordFetchRetry() {
	if fetchRetriesTotal == nil {
		return
	}
	fetchRetriesTotal.Inc()
}

// RecordFetchAttempt counts a fetch attempt outcome ("ok" or "error").
func RecordFetchAttempt(ok bool) {
	if fetchAttemptsTotal == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	fetchAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordRateLimited counts a rejected request.
func RecordRateLimited() {
	if rateLimitRejectionsTotal == nil {
		return
	}
	rateLimitRejectionsTotal.Inc()
}

// RecordEnrichFailure counts an enrichment sub-operation that fell back to
// its safe default.
func RecordEnrichFailure(op string) {
	if enrichFailuresTotal == nil {
		return
	}
	enrichFailuresTotal.WithLabelValues(op).Inc()
}
