// Package metrics exposes Prometheus counters for the analysis, sign-in and
// feedback flows.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and middleware report to.
type Recorder interface {
	RecordAnalysis(kind, outcome string, duration time.Duration)
	RecordPageFetchFailure()
	RecordFeedback(score float64)
	RecordSignIn(method, outcome string)
	RecordHTTPResponse(method string, statusCode int)
}

type Collector struct {
	analyses        *prometheus.CounterVec
	analysisLatency *prometheus.HistogramVec
	pageFetchFail   prometheus.Counter
	feedbackScores  prometheus.Histogram
	signIns         *prometheus.CounterVec
	httpResponses   *prometheus.CounterVec
}

// NewCollector registers the collector's metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uxlens_analyses_total",
			Help: "Analyses by input type and outcome.",
		}, []string{"type", "outcome"}),
		analysisLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "uxlens_analysis_duration_seconds",
			Help:    "End-to-end analysis latency, page fetch and completion included.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 90},
		}, []string{"type"}),
		pageFetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uxlens_page_fetch_fail_total",
			Help: "Page fetches that failed and fell back to a URL-only prompt.",
		}),
		feedbackScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "uxlens_feedback_score",
			Help:    "Submitted feedback scores.",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		}),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uxlens_sign_ins_total",
			Help: "Sign-in completions by method and outcome.",
		}, []string{"method", "outcome"}),
		httpResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uxlens_http_responses_total",
			Help: "HTTP responses by method and status code.",
		}, []string{"method", "status_code"}),
	}

	reg.MustRegister(
		c.analyses,
		c.analysisLatency,
		c.pageFetchFail,
		c.feedbackScores,
		c.signIns,
		c.httpResponses,
	)

	return c
}

func (c *Collector) RecordAnalysis(kind, outcome string, duration time.Duration) {
	c.analyses.WithLabelValues(kind, outcome).Inc()
	c.analysisLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

func (c *Collector) RecordPageFetchFailure() {
	c.pageFetchFail.Inc()
}

func (c *Collector) RecordFeedback(score float64) {
	c.feedbackScores.Observe(score)
}

func (c *Collector) RecordSignIn(method, outcome string) {
	c.signIns.WithLabelValues(method, outcome).Inc()
}

func (c *Collector) RecordHTTPResponse(method string, statusCode int) {
	c.httpResponses.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

// Nop discards everything. Used when metrics are disabled and in tests.
type Nop struct{}

func (Nop) RecordAnalysis(string, string, time.Duration) {}
func (Nop) RecordPageFetchFailure() {}
func (Nop) RecordFeedback(float64) {}
func (Nop) RecordSignIn(string, string) {}
func (Nop) RecordHTTPResponse(string, int) {}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
