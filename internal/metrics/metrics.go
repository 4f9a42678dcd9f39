// Package metrics exposes Prometheus collectors for the dashboard backend.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "perpdash"

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Venue API calls by provider, operation and outcome.",
	}, []string{"provider", "op", "outcome"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_latency_seconds",
		Help:      "Venue API call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider", "op"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Funding cache lookups by result.",
	}, []string{"result"})

	PersistedRates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persisted_rates_total",
		Help:      "Funding rate rows written per venue.",
	}, []string{"dex"})

	IngestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_runs_total",
		Help:      "Ingest cron runs by outcome.",
	}, []string{"outcome"})

	IngestLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ingest_last_success_timestamp_seconds",
		Help:      "Unix time of the last successful ingest run.",
	})

	FramesRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chart_frames_rendered_total",
		Help:      "PNG chart frames rendered by transport.",
	}, []string{"transport"})

	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "chart_live_sessions",
		Help:      "Open live chart websocket sessions.",
	})
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// ObserveUpstream records one venue call started at start.
func ObserveUpstream(provider, op string, start time.Time, err error) {
	UpstreamRequests.WithLabelValues(provider, op, outcome(err)).Inc()
	UpstreamLatency.WithLabelValues(provider, op).Observe(time.Since(start).Seconds())
}

// ObserveCache records a cache hit or miss.
func ObserveCache(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}

// ObserveIngest records an ingest run finishing at now.
func ObserveIngest(now time.Time, err error) {
	IngestRuns.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		IngestLastSuccess.Set(float64(now.Unix()))
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
