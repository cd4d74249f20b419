package metrics

import (
	"resetflow/internal/core/domain/metrics"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "resetflow"

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

type Prometheus struct {
	serviceRuns        *prometheus.CounterVec
	serviceRunDuration *prometheus.HistogramVec
	resetLinkFailures  *prometheus.CounterVec
}

func NewPrometheus(registerer prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		serviceRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "service_runs_total",
				Help:      "Number of service runs by outcome.",
			},
			[]string{"service", "outcome"},
		),
		serviceRunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "service_run_duration_seconds",
				Help:      "Duration of service runs.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service"},
		),
		resetLinkFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "password_reset_link_failures_total",
				Help:      "Number of password reset links that could not be dispatched or delivered.",
			},
			[]string{"stage"},
		),
	}
	registerer.MustRegister(p.serviceRuns, p.serviceRunDuration, p.resetLinkFailures)
	return p
}

func (p *Prometheus) ServiceRun(service string, err error, duration time.Duration) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	}
	p.serviceRuns.WithLabelValues(service, outcome).Inc()
	p.serviceRunDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (p *Prometheus) PasswordResetLinkFailed(stage metrics.LinkFailureStage) {
	p.resetLinkFailures.WithLabelValues(string(stage)).Inc()
}
