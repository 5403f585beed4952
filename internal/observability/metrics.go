package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonathan/resume-optimizer/internal/optimize"
)

// Call results reported on collaborator_calls_total.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds the service's Prometheus collectors. It satisfies the
// optimization controller's metrics sink.
type Metrics struct {
	runs            *prometheus.CounterVec
	iterations      prometheus.Counter
	finalScore      prometheus.Histogram
	runDuration     prometheus.Histogram
	calls           *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpRequestTime *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optimization_runs_total",
			Help: "Completed optimization runs by outcome.",
		}, []string{"outcome"}),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optimization_iterations_total",
			Help: "Optimization loop iterations executed.",
		}),
		finalScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "optimization_final_score",
			Help:    "Final overall score of successful optimization runs.",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "optimization_run_duration_seconds",
			Help:    "Wall time of successful optimization runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collaborator_calls_total",
			Help: "Scoring and rewrite calls by operation and result.",
		}, []string{"operation", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpRequestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.runs, m.iterations, m.finalScore, m.runDuration, m.calls, m.httpRequests, m.httpRequestTime)
	return m
}

// ObserveRun records a finished optimization run. Failed runs carry an
// error kind as outcome and contribute no score or duration sample.
func (m *Metrics) ObserveRun(outcome string, iterations, finalScore int, duration time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
	m.iterations.Add(float64(iterations))
	if outcome != optimize.OutcomeTargetAchieved && outcome != optimize.OutcomeBudgetExhausted {
		return
	}
	m.finalScore.Observe(float64(finalScore))
	m.runDuration.Observe(duration.Seconds())
}

// ObserveCall records one scoring, tailoring or rewrite call.
func (m *Metrics) ObserveCall(operation string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.calls.WithLabelValues(operation, result).Inc()
}

// ObserveHTTP records one served request. route is the matched pattern,
// never the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestTime.WithLabelValues(method, route).Observe(duration.Seconds())
}
