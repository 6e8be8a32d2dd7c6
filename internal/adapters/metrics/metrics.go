// Package metrics exposes Prometheus counters for completions, xp grants,
// daily nudges and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/comitanigiacomo/habit-nudge/internal/core/services"
)

var _ services.MetricsRecorder = (*Collector)(nil)

type Collector struct {
	completions         *prometheus.CounterVec
	alreadyCompleted    prometheus.Counter
	completionConflicts prometheus.Counter
	xpGranted           *prometheus.CounterVec
	dailyNudges         *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpLatency         *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "habitnudge_completions_total",
			Help: "Accepted habit completions, split by whether a milestone bonus applied.",
		}, []string{"bonus"}),
		alreadyCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "habitnudge_completions_rejected_total",
			Help: "Completions rejected because the habit was already done that day.",
		}),
		completionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "habitnudge_completion_conflicts_total",
			Help: "Completion attempts retried after a concurrent write.",
		}),
		xpGranted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "habitnudge_xp_granted_total",
			Help: "XP credited to users by source.",
		}, []string{"source"}),
		dailyNudges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "habitnudge_daily_nudges_total",
			Help: "Daily nudge reads, split into fresh picks and cached hits.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "habitnudge_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "habitnudge_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.completions,
		c.alreadyCompleted,
		c.completionConflicts,
		c.xpGranted,
		c.dailyNudges,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordCompletion(xpGained int, bonus bool) {
	c.completions.WithLabelValues(strconv.FormatBool(bonus)).Inc()
}

func (c *Collector) RecordAlreadyCompleted() {
	c.alreadyCompleted.Inc()
}

func (c *Collector) RecordCompletionConflict() {
	c.completionConflicts.Inc()
}

func (c *Collector) RecordXPGrant(source string, amount int) {
	c.xpGranted.WithLabelValues(source).Add(float64(amount))
}

func (c *Collector) RecordDailyNudge(fresh bool) {
	result := "cached"
	if fresh {
		result = "fresh"
	}
	c.dailyNudges.WithLabelValues(result).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
