// Package metrics exposes Prometheus counters for analyses and API traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/clauselens/internal/model"
)

const namespace = "clauselens"

// Metrics owns a private registry; nothing is registered globally
type Metrics struct {
	registry *prometheus.Registry

	analyses        *prometheus.CounterVec
	analysisSeconds *prometheus.HistogramVec
	riskScore       prometheus.Histogram
	flags           *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestSeconds  *prometheus.HistogramVec
	quotaRejections prometheus.Counter
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Contracts analyzed, by source kind and risk level.",
		}, []string{"source_kind", "risk_level"}),
		analysisSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent producing an analysis result.",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"source_kind"}),
		riskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Distribution of risk scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		flags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "red_flags_total",
			Help:      "Red flags detected, by rule and severity.",
		}, []string{"flag", "severity"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups, by outcome.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		quotaRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_rejections_total",
			Help:      "Analyses refused because the free daily quota was used up.",
		}),
	}

	m.registry.MustRegister(
		m.analyses, m.analysisSeconds, m.riskScore, m.flags, m.cacheLookups,
		m.requests, m.requestSeconds, m.quotaRejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveAnalysis records one finished analysis
func (m *Metrics) ObserveAnalysis(kind model.SourceKind, res *model.AnalysisResult, elapsed time.Duration, cached bool) {
	outcome := "miss"
	if cached {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()

	m.analyses.WithLabelValues(string(kind), string(res.RiskLevel)).Inc()
	m.analysisSeconds.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
	m.riskScore.Observe(float64(res.RiskScore))
	for _, f := range res.Flags {
		m.flags.WithLabelValues(f.ID, string(f.Severity)).Inc()
	}
}

// ObserveRequest records one HTTP request. route is the matched pattern, not the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestSeconds.WithLabelValues(route).Observe(elapsed.Seconds())
}

// QuotaRejected counts a request refused by the usage meter
func (m *Metrics) QuotaRejected() { m.quotaRejections.Inc() }
