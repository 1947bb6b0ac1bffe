package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/agbru/peuler/internal/format"
	"github.com/agbru/peuler/internal/orchestration"
)

// BenchmarkProgress shows a spinner with the running statistics of a
// benchmark loop. It implements orchestration.BenchmarkReporter.
type BenchmarkProgress struct {
	mu      sync.Mutex
	spinner Spinner
	label   string
	active  bool
}

var _ orchestration.BenchmarkReporter = (*BenchmarkProgress)(nil)

// NewBenchmarkProgress returns a reporter writing to out. label prefixes
// every status line.
func NewBenchmarkProgress(label string, out io.Writer) *BenchmarkProgress {
	return &BenchmarkProgress{spinner: newSpinner(out), label: label}
}

// Start shows the spinner.
func (p *BenchmarkProgress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return
	}
	p.spinner.UpdateSuffix(" " + p.label)
	p.spinner.Start()
	p.active = true
}

// ReportSample refreshes the status line.
func (p *BenchmarkProgress) ReportSample(u orchestration.BenchmarkUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	p.spinner.UpdateSuffix(" " + statusLine(p.label, u))
}

// Stop hides the spinner. It is safe to call more than once.
func (p *BenchmarkProgress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	p.spinner.Stop()
	p.active = false
}

func statusLine(label string, u orchestration.BenchmarkUpdate) string {
	mean, sd, unit := format.ScaleNanos(u.Summary.Mean, u.Summary.StdDev)
	stats := fmt.Sprintf("n=%d mean=%.3f %s", u.Summary.N, mean, unit)
	if u.Summary.HasStdDev {
		stats += fmt.Sprintf(" sd=%.3f %s", sd, unit)
	}
	if u.Total <= 0 {
		return fmt.Sprintf("%s %s", label, stats)
	}
	bar := progressBar(float64(u.Iteration)/float64(u.Total), ProgressBarWidth)
	return fmt.Sprintf("%s %s %d/%d %s", label, bar, u.Iteration, u.Total, stats)
}
