package cli

import (
	"io"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/agbru/peuler/internal/cli/mocks"
	"github.com/agbru/peuler/internal/orchestration"
	"github.com/agbru/peuler/internal/stats"
)

func TestBenchmarkProgressLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	spin := mocks.NewMockSpinner(ctrl)

	original := newSpinner
	newSpinner = func(io.Writer) Spinner { return spin }
	t.Cleanup(func() { newSpinner = original })

	gomock.InOrder(
		spin.EXPECT().UpdateSuffix(" bench 0001"),
		spin.EXPECT().Start(),
		spin.EXPECT().UpdateSuffix(gomock.Any()).Do(func(s string) {
			if !strings.Contains(s, "1/4") || !strings.Contains(s, "mean=1.500 µs") {
				t.Errorf("suffix = %q", s)
			}
		}),
		spin.EXPECT().Stop(),
	)

	p := NewBenchmarkProgress("bench 0001", io.Discard)
	p.Start()
	p.Start()
	p.ReportSample(orchestration.BenchmarkUpdate{
		Iteration: 1,
		Total:     4,
		Summary:   stats.Summary{N: 1, Mean: 1500, HasMean: true},
	})
	p.Stop()
	p.Stop()
	// Updates after Stop are dropped.
	p.ReportSample(orchestration.BenchmarkUpdate{Iteration: 2, Total: 4})
}

func TestStatusLine(t *testing.T) {
	t.Parallel()
	u := orchestration.BenchmarkUpdate{
		Summary: stats.Summary{N: 3, Mean: 3e6, HasMean: true, StdDev: 5e5, HasStdDev: true},
	}
	if got, want := statusLine("b", u), "b n=3 mean=3.000 ms sd=0.500 ms"; got != want {
		t.Errorf("unbounded statusLine = %q, want %q", got, want)
	}

	// A mean of exactly 1000 ns stays in nanoseconds.
	edge := orchestration.BenchmarkUpdate{Summary: stats.Summary{N: 1, Mean: 1000, HasMean: true}}
	if got, want := statusLine("b", edge), "b n=1 mean=1000.000 ns"; got != want {
		t.Errorf("boundary statusLine = %q, want %q", got, want)
	}

	u.Iteration, u.Total = 3, 6
	got := statusLine("b", u)
	if !strings.Contains(got, "3/6") || !strings.Contains(got, strings.Repeat("█", ProgressBarWidth/2)) {
		t.Errorf("bounded statusLine = %q", got)
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		progress float64
		want     string
	}{
		{0, "░░░░"},
		{0.5, "██░░"},
		{1, "████"},
		{2, "████"},
		{-1, "░░░░"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.progress, 4); got != tt.want {
			t.Errorf("progressBar(%v) = %q, want %q", tt.progress, got, tt.want)
		}
	}
}
