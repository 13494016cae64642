package turbo_retry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "turbo_retry"

// Outcome labels
const (
	resultSuccess            = "success"
	resultRateLimitExhausted = "rate_limit_exhausted"
	resultUpstreamError      = "upstream_error"
	resultTransportFailure   = "transport_failure"
)

// Metrics exports retry telemetry to Prometheus. A nil *Metrics records nothing.
type Metrics struct {
	attempts    prometheus.Counter
	rateLimited prometheus.Counter
	retries     prometheus.Counter
	outcomes    *prometheus.CounterVec
	delays      prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "attempts_total",
			Help:      "Calls issued to the remote API, retries included.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limited_total",
			Help:      "Attempts rejected with a rate limit.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "retries_total",
			Help:      "Retries scheduled after a rate limit.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "calls_total",
			Help:      "Orchestrated calls by final result.",
		}, []string{"result"}),
		delays: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "retry_delay_seconds",
			Help:      "Computed wait before a retry.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32, 60},
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.attempts, m.rateLimited, m.retries, m.outcomes, m.delays} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("register retry metrics: %w", err)
			}
		}
	}
	return m, nil
}

func (m *Metrics) observeAttempt() {
	if m == nil {
		return
	}
	m.attempts.Inc()
}

func (m *Metrics) observeRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) observeRetry(delay time.Duration) {
	if m == nil {
		return
	}
	m.retries.Inc()
	m.delays.Observe(delay.Seconds())
}

func (m *Metrics) observeResult(result string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(result).Inc()
}
