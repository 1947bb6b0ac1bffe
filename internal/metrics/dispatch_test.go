package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestDispatchMetrics_Counters(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg)

	m.JobSubmitted("solve")
	m.JobSubmitted("solve")
	m.JobSettled("solve", OutcomeOK, 3*time.Millisecond)
	m.JobSettled("solve", OutcomeCancelled, 0)
	m.StaleResponse()
	m.UnitStarted(nil)
	m.UnitStarted(errors.New("boom"))
	m.SetEpoch(4)
	m.SetQueueDepth(2)

	if got := testutil.ToFloat64(m.submitted.WithLabelValues("solve")); got != 2 {
		t.Errorf("submitted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.settled.WithLabelValues("solve", OutcomeCancelled)); got != 1 {
		t.Errorf("cancelled = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.stale); got != 1 {
		t.Errorf("stale = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.unitStarts.WithLabelValues("error")); got != 1 {
		t.Errorf("unit start errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.epoch); got != 4 {
		t.Errorf("epoch = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.queueDepth); got != 2 {
		t.Errorf("queue depth = %v, want 2", got)
	}
}

func TestDispatchMetrics_HistogramOnlyForSuccess(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg)

	m.JobSettled("benchmark", OutcomeOK, time.Millisecond)
	m.JobSettled("benchmark", OutcomeComputation, time.Second)
	m.BenchmarkSample("0007", 2*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	counts := map[string]uint64{}
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_HISTOGRAM {
			continue
		}
		for _, metric := range mf.GetMetric() {
			counts[mf.GetName()] += metric.GetHistogram().GetSampleCount()
		}
	}
	if counts["peuler_job_duration_seconds"] != 1 {
		t.Errorf("job duration samples = %d, want 1", counts["peuler_job_duration_seconds"])
	}
	if counts["peuler_benchmark_sample_seconds"] != 1 {
		t.Errorf("benchmark samples = %d, want 1", counts["peuler_benchmark_sample_seconds"])
	}
}

func TestDispatchMetrics_NilSafe(t *testing.T) {
	t.Parallel()
	var m *DispatchMetrics
	m.JobSubmitted("solve")
	m.JobSettled("solve", OutcomeOK, time.Second)
	m.StaleResponse()
	m.UnitStarted(nil)
	m.SetEpoch(1)
	m.SetQueueDepth(1)
	m.BenchmarkSample("1", time.Second)
}

func TestNewDispatchMetrics_NilRegisterer(t *testing.T) {
	t.Parallel()
	m := NewDispatchMetrics(nil)
	m.JobSubmitted("problems")
	if got := testutil.ToFloat64(m.submitted.WithLabelValues("problems")); got != 1 {
		t.Errorf("submitted = %v, want 1", got)
	}
}
