package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Job outcomes used as the "outcome" label.
const (
	OutcomeOK          = "ok"
	OutcomeCancelled   = "cancelled"
	OutcomeComputation = "computation_error"
	OutcomeProtocol    = "protocol_error"
	OutcomeInit        = "init_error"
)

// DispatchMetrics holds the dispatcher's Prometheus collectors. A nil
// *DispatchMetrics is valid and records nothing.
type DispatchMetrics struct {
	submitted      *prometheus.CounterVec
	settled        *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	stale          prometheus.Counter
	unitStarts     *prometheus.CounterVec
	epoch          prometheus.Gauge
	queueDepth     prometheus.Gauge
	benchmarkNanos *prometheus.HistogramVec
}

// NewDispatchMetrics creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in
// tests.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peuler_jobs_submitted_total",
			Help: "Jobs submitted to the dispatcher.",
		}, []string{"kind"}),
		settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peuler_jobs_settled_total",
			Help: "Jobs whose future was settled, by outcome.",
		}, []string{"kind", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "peuler_job_duration_seconds",
			Help:    "Time from dispatch to settlement of a job.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"kind"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "peuler_stale_responses_total",
			Help: "Unit responses discarded because their epoch or job id was not current.",
		}),
		unitStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peuler_unit_starts_total",
			Help: "Execution unit start attempts, by result.",
		}, []string{"result"}),
		epoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "peuler_dispatch_epoch",
			Help: "Current dispatcher epoch.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "peuler_dispatch_queue_depth",
			Help: "Jobs waiting in the current epoch's queue.",
		}),
		benchmarkNanos: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "peuler_benchmark_sample_seconds",
			Help:    "Individual benchmark timings reported by the execution unit.",
			Buckets: prometheus.ExponentialBuckets(0.000001, 10, 9),
		}, []string{"problem"}),
	}
	if reg != nil {
		reg.MustRegister(m.submitted, m.settled, m.jobDuration, m.stale,
			m.unitStarts, m.epoch, m.queueDepth, m.benchmarkNanos)
	}
	return m
}

func (m *DispatchMetrics) JobSubmitted(kind string) {
	if m == nil {
		return
	}
	m.submitted.WithLabelValues(kind).Inc()
}

func (m *DispatchMetrics) JobSettled(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.settled.WithLabelValues(kind, outcome).Inc()
	if outcome == OutcomeOK {
		m.jobDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
}

func (m *DispatchMetrics) StaleResponse() {
	if m == nil {
		return
	}
	m.stale.Inc()
}

func (m *DispatchMetrics) UnitStarted(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.unitStarts.WithLabelValues(result).Inc()
}

func (m *DispatchMetrics) SetEpoch(epoch uint64) {
	if m == nil {
		return
	}
	m.epoch.Set(float64(epoch))
}

func (m *DispatchMetrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// BenchmarkSample records one timing reported for problem.
func (m *DispatchMetrics) BenchmarkSample(problem string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.benchmarkNanos.WithLabelValues(problem).Observe(elapsed.Seconds())
}
