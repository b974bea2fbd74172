package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	decisionsTotal     *prometheus.CounterVec
	recommendRuns      *prometheus.CounterVec
	recommendDuration  prometheus.Histogram
	poolSize           prometheus.Gauge
	symbolFailures     *prometheus.CounterVec
	analysisCache      *prometheus.CounterVec
	marketDataRequests *prometheus.CounterVec
	adviceRequests     *prometheus.CounterVec
	archiveWrites      *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kachi_decisions_total",
			Help: "Total number of scoring decisions",
		},
		[]string{"mode", "decision"},
	)
	r.recommendRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kachi_recommend_runs_total",
			Help: "Total number of recommendation runs",
		},
		[]string{"status"},
	)
	r.recommendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kachi_recommend_duration_seconds",
			Help:    "Recommendation run duration in seconds",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)
	r.poolSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kachi_recommend_pool_size",
			Help: "Number of symbols in the last recommendation pool",
		},
	)
	r.symbolFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kachi_symbol_failures_total",
			Help: "Total number of symbols dropped from a recommendation pool",
		},
		[]string{"stage"},
	)
	r.analysisCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kachi_analysis_cache_total",
			Help: "Per-symbol analysis cache lookups",
		},
		[]string{"result"},
	)
	r.marketDataRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kachi_market_data_requests_total",
			Help: "Total number of upstream market-data requests",
		},
		[]string{"function", "status"},
	)
	r.adviceRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kachi_advice_requests_total",
			Help: "Total number of advice narrations",
		},
		[]string{"provider", "status"},
	)
	r.archiveWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kachi_archive_writes_total",
			Help: "Total number of recommendation run archive writes",
		},
		[]string{"status"},
	)

	reg.MustRegister(r.decisionsTotal)
	reg.MustRegister(r.recommendRuns)
	reg.MustRegister(r.recommendDuration)
	reg.MustRegister(r.poolSize)
	reg.MustRegister(r.symbolFailures)
	reg.MustRegister(r.analysisCache)
	reg.MustRegister(r.marketDataRequests)
	reg.MustRegister(r.adviceRequests)
	reg.MustRegister(r.archiveWrites)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordDecision records one scoring decision.
func (r *Registry) RecordDecision(mode, decision string) {
	r.decisionsTotal.WithLabelValues(mode, decision).Inc()
}

// RecordRecommendRun records a finished recommendation run.
func (r *Registry) RecordRecommendRun(status string, duration float64) {
	r.recommendRuns.WithLabelValues(status).Inc()
	r.recommendDuration.Observe(duration)
}

// SetPoolSize sets the size of the last recommendation pool.
func (r *Registry) SetPoolSize(size int) {
	r.poolSize.Set(float64(size))
}

// RecordSymbolFailure records a symbol dropped at the given stage.
func (r *Registry) RecordSymbolFailure(stage string) {
	r.symbolFailures.WithLabelValues(stage).Inc()
}

// RecordCacheLookup records an analysis cache hit or miss.
func (r *Registry) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.analysisCache.WithLabelValues(result).Inc()
}

// RecordMarketDataRequest records an upstream market-data call.
func (r *Registry) RecordMarketDataRequest(function, status string) {
	r.marketDataRequests.WithLabelValues(function, status).Inc()
}

// RecordAdvice records an advice narration.
func (r *Registry) RecordAdvice(provider, status string) {
	r.adviceRequests.WithLabelValues(provider, status).Inc()
}

// RecordArchiveWrite records a run archive write.
func (r *Registry) RecordArchiveWrite(status string) {
	r.archiveWrites.WithLabelValues(status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
