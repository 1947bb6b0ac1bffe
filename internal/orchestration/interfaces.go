package orchestration

import (
	"io"

	"github.com/agbru/peuler/internal/dispatch"
	"github.com/agbru/peuler/internal/euler"
	"github.com/agbru/peuler/internal/stats"
	"github.com/agbru/peuler/internal/store"
)

// Dispatcher is the part of dispatch.Dispatcher the controller relies on.
type Dispatcher interface {
	Submit(job dispatch.Job) *dispatch.Future
	CancelAll() uint64
	Epoch() uint64
}

var _ Dispatcher = (*dispatch.Dispatcher)(nil)

// BenchmarkUpdate is published after every accepted benchmark sample.
type BenchmarkUpdate struct {
	// ProblemID is the benchmarked problem.
	ProblemID int
	// Answer is the answer returned by the latest run.
	Answer string
	// Sample is the latest run's duration in nanoseconds.
	Sample float64
	// Summary reflects the accumulator after Sample was pushed.
	Summary stats.Summary
	// Iteration counts the samples taken by this loop, starting at 1.
	Iteration int
	// Total is the requested number of iterations, zero when unbounded.
	Total int
}

// BenchmarkReporter receives live benchmark updates. Implementations must
// not block for long: they are called from the benchmark loop.
type BenchmarkReporter interface {
	ReportSample(update BenchmarkUpdate)
}

// ReporterFunc is a function adapter that implements BenchmarkReporter.
type ReporterFunc func(update BenchmarkUpdate)

// ReportSample calls the underlying function.
func (f ReporterFunc) ReportSample(update BenchmarkUpdate) { f(update) }

// NullReporter discards every update.
type NullReporter struct{}

// ReportSample does nothing.
func (NullReporter) ReportSample(BenchmarkUpdate) {}

// SolutionRow is one line of a multi-problem solve.
type SolutionRow struct {
	Problem euler.Info
	Answer  string
	Err     error
}

// BenchmarkRow is one line of a multi-problem benchmark.
type BenchmarkRow struct {
	Problem euler.Info
	Answer  string
	Summary stats.Summary
	Err     error
}

// ResultPresenter renders controller results. The CLI provides the
// terminal implementation.
type ResultPresenter interface {
	PresentProblems(problems []euler.Info, out io.Writer)
	PresentCount(count int, out io.Writer)
	PresentSolution(problem euler.Info, answer string, out io.Writer)
	PresentSolutions(rows []SolutionRow, out io.Writer)
	PresentBenchmark(problem euler.Info, answer string, summary stats.Summary, out io.Writer)
	PresentBenchmarks(rows []BenchmarkRow, out io.Writer)
	PresentHistory(problemID int, records []store.BenchmarkRecord, out io.Writer)
}

// ErrorHandler maps errors to user-facing output and exit codes.
type ErrorHandler interface {
	HandleError(err error, out io.Writer) int
}
