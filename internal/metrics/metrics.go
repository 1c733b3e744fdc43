package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vidsum"

// Metrics holds the instrumentation for the summarization pipeline.
type Metrics struct {
	RunsStarted   prometheus.Counter
	RunsSucceeded prometheus.Counter
	RunsFailed    *prometheus.CounterVec

	StageDuration *prometheus.HistogramVec

	AcquireAttempts *prometheus.CounterVec
	ProviderCalls   *prometheus.CounterVec
	ProviderErrors  *prometheus.CounterVec
}

// New registers the pipeline metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Number of pipeline runs started.",
		}),
		RunsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_succeeded_total",
			Help:      "Number of pipeline runs that produced a report.",
		}),
		RunsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_failed_total",
			Help:      "Number of failed pipeline runs by stage.",
		}, []string{"stage"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"stage"}),
		AcquireAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "acquire_attempts_total",
			Help:      "Acquisition attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		ProviderCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Summarization calls by provider.",
		}, []string{"provider"}),
		ProviderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Failed summarization calls by provider.",
		}, []string{"provider"}),
	}
}

// The helpers below are nil-safe so callers can run unmetered.

func (m *Metrics) RunStarted() {
	if m != nil {
		m.RunsStarted.Inc()
	}
}

func (m *Metrics) RunSucceeded() {
	if m != nil {
		m.RunsSucceeded.Inc()
	}
}

func (m *Metrics) RunFailed(stage string) {
	if m != nil {
		m.RunsFailed.WithLabelValues(stage).Inc()
	}
}

// ObserveStage records one stage duration.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

func (m *Metrics) AcquireAttempt(strategy, outcome string) {
	if m != nil {
		m.AcquireAttempts.WithLabelValues(strategy, outcome).Inc()
	}
}

func (m *Metrics) ProviderCall(provider string, failed bool) {
	if m != nil {
		m.ProviderCalls.WithLabelValues(provider).Inc()
		if failed {
			m.ProviderErrors.WithLabelValues(provider).Inc()
		}
	}
}
