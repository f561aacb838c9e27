package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Registry *prometheus.Registry

	requests           *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	downstreamFailures *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mmpa_function_requests_total",
			Help: "Total number of function requests by status code",
		}, []string{"function", "status"}),

		// Inference calls are slow; the default buckets stop at 10s.
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mmpa_function_request_duration_seconds",
			Help:    "Time taken to serve function requests",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"function"}),

		downstreamFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mmpa_downstream_failures_total",
			Help: "Failed calls to storage or inference services",
		}, []string{"function", "stage"}),
	}
}

func (m *Metrics) ObserveRequest(function, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(function, status).Inc()
	m.requestDuration.WithLabelValues(function).Observe(d.Seconds())
}

func (m *Metrics) DownstreamFailure(function, stage string) {
	if m == nil {
		return
	}
	m.downstreamFailures.WithLabelValues(function, stage).Inc()
}
