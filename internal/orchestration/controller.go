package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/agbru/peuler/internal/dispatch"
	apperrors "github.com/agbru/peuler/internal/errors"
	"github.com/agbru/peuler/internal/euler"
	"github.com/agbru/peuler/internal/logging"
	"github.com/agbru/peuler/internal/metrics"
	"github.com/agbru/peuler/internal/stats"
	"github.com/agbru/peuler/internal/store"
)

// ErrNoSelection is returned by operations that need a selected problem.
var ErrNoSelection = errors.New("no problem selected")

// Option configures a Controller.
type Option func(*Controller)

// WithSelectionStore persists the selection across sessions.
func WithSelectionStore(s SelectionStore) Option { return func(c *Controller) { c.selection = s } }

// WithHistoryStore records every finished benchmark loop.
func WithHistoryStore(h HistoryStore) Option { return func(c *Controller) { c.history = h } }

// WithLogger sets the controller's logger.
func WithLogger(l logging.Logger) Option { return func(c *Controller) { c.logger = l } }

// WithMetrics records benchmark samples.
func WithMetrics(m *metrics.DispatchMetrics) Option { return func(c *Controller) { c.metrics = m } }

// Snapshot is a consistent view of the controller's state.
type Snapshot struct {
	Epoch        uint64
	ProblemID    int
	HasSelection bool
	Running      bool
	LastAnswer   string
	Summary      stats.Summary
}

// Controller holds the presentation-independent session state: the
// selected problem and the sample of its benchmark durations. All methods
// are safe for concurrent use.
type Controller struct {
	dispatcher Dispatcher
	selection  SelectionStore
	history    HistoryStore
	logger     logging.Logger
	metrics    *metrics.DispatchMetrics

	mu           sync.Mutex
	problemID    int
	hasSelection bool
	sample       stats.Sample
	lastAnswer   string
	// loop identifies the benchmark loop allowed to push samples. Select,
	// Stop and every new Benchmark call advance it.
	loop    uint64
	running bool
}

// NewController builds a controller over d.
func NewController(d Dispatcher, opts ...Option) *Controller {
	c := &Controller{dispatcher: d, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore loads the persisted selection, if any.
func (c *Controller) Restore(ctx context.Context) error {
	if c.selection == nil {
		return nil
	}
	id, err := c.selection.LoadSelection(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore selection: %w", err)
	}
	c.mu.Lock()
	c.problemID, c.hasSelection = id, true
	c.mu.Unlock()
	c.logger.Debug("selection restored", logging.Int("problem", id))
	return nil
}

// Problems returns the catalogue known to the execution unit.
func (c *Controller) Problems(ctx context.Context) ([]euler.Info, error) {
	res, err := c.dispatcher.Submit(dispatch.ListProblems()).Await(ctx)
	if err != nil {
		return nil, err
	}
	return res.Problems, nil
}

// Select makes id the current problem. Outstanding work is cancelled, the
// benchmark sample is cleared and the selection is persisted. It returns
// the dispatcher epoch that results must now belong to.
func (c *Controller) Select(ctx context.Context, id int) (uint64, error) {
	if id <= 0 {
		return 0, apperrors.ValidationError{Field: "problem", Message: "must be a positive id"}
	}

	c.mu.Lock()
	c.loop++
	c.running = false
	epoch := c.dispatcher.CancelAll()
	c.problemID, c.hasSelection = id, true
	c.sample.Clear()
	c.lastAnswer = ""
	c.mu.Unlock()

	c.logger.Info("problem selected", logging.Int("problem", id), logging.Uint64("epoch", epoch))

	if c.selection != nil {
		if err := c.selection.SaveSelection(ctx, id); err != nil {
			return epoch, fmt.Errorf("persist selection: %w", err)
		}
	}
	return epoch, nil
}

// Selected returns the current problem id.
func (c *Controller) Selected() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.problemID, c.hasSelection
}

// Solve solves the selected problem.
func (c *Controller) Solve(ctx context.Context) (string, error) {
	id, ok := c.Selected()
	if !ok {
		return "", ErrNoSelection
	}
	answer, err := c.SolveProblem(ctx, id)
	if err == nil {
		c.mu.Lock()
		if c.problemID == id {
			c.lastAnswer = answer
		}
		c.mu.Unlock()
	}
	return answer, err
}

// SolveProblem solves id without touching the selection.
func (c *Controller) SolveProblem(ctx context.Context, id int) (string, error) {
	res, err := c.dispatcher.Submit(dispatch.Solve(id)).Await(ctx)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// SolveAll solves every problem in the catalogue, one at a time.
func (c *Controller) SolveAll(ctx context.Context) ([]SolutionRow, error) {
	problems, err := c.Problems(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]SolutionRow, 0, len(problems))
	for _, p := range problems {
		answer, err := c.SolveProblem(ctx, p.ID)
		if apperrors.IsCancelled(err) {
			return rows, err
		}
		rows = append(rows, SolutionRow{Problem: p, Answer: answer, Err: err})
	}
	return rows, nil
}

// Benchmark repeatedly benchmarks the selected problem and folds each
// duration into the session sample. iterations <= 0 runs until the loop is
// stopped. Every accepted sample is published to reporter.
//
// The loop ends without error when the selection changes or Stop is called.
// A computation failure halts the loop and is returned. When the loop ran
// to completion, its summary is recorded in the history store.
func (c *Controller) Benchmark(ctx context.Context, iterations int, reporter BenchmarkReporter) (stats.Summary, error) {
	if reporter == nil {
		reporter = NullReporter{}
	}

	c.mu.Lock()
	if !c.hasSelection {
		c.mu.Unlock()
		return stats.Summary{}, ErrNoSelection
	}
	c.loop++
	loop, id := c.loop, c.problemID
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.loop == loop {
			c.running = false
		}
		c.mu.Unlock()
	}()

	c.logger.Debug("benchmark loop started", logging.Int("problem", id), logging.Int("iterations", iterations))

	var answer string
	for i := 1; iterations <= 0 || i <= iterations; i++ {
		res, err := c.dispatcher.Submit(dispatch.Benchmark(id)).Await(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				c.abandon(loop)
				return c.Snapshot().Summary, ctxErr
			}
			if apperrors.IsCancelled(err) {
				return c.Snapshot().Summary, nil
			}
			c.logger.Warn("benchmark loop halted", logging.Int("problem", id), logging.Err(err))
			return c.Snapshot().Summary, err
		}

		c.mu.Lock()
		if c.loop != loop {
			c.mu.Unlock()
			return c.Snapshot().Summary, nil
		}
		nanos := float64(res.Duration.Nanoseconds())
		c.sample.Push(nanos)
		c.lastAnswer = res.Answer
		summary := c.sample.Summary()
		c.mu.Unlock()

		answer = res.Answer
		c.metrics.BenchmarkSample(strconv.Itoa(id), res.Duration)
		reporter.ReportSample(BenchmarkUpdate{
			ProblemID: id,
			Answer:    res.Answer,
			Sample:    nanos,
			Summary:   summary,
			Iteration: i,
			Total:     iterations,
		})
	}

	summary := c.Snapshot().Summary
	c.record(ctx, id, answer, summary)
	return summary, nil
}

// BenchmarkProblem benchmarks id iterations times into a fresh sample,
// leaving the session sample untouched. reporter may be nil.
func (c *Controller) BenchmarkProblem(ctx context.Context, id, iterations int, reporter BenchmarkReporter) (string, stats.Summary, error) {
	if iterations <= 0 {
		return "", stats.Summary{}, apperrors.ValidationError{Field: "iterations", Message: "must be positive"}
	}
	if reporter == nil {
		reporter = NullReporter{}
	}
	var (
		sample stats.Sample
		answer string
	)
	for i := 1; i <= iterations; i++ {
		res, err := c.dispatcher.Submit(dispatch.Benchmark(id)).Await(ctx)
		if err != nil {
			return answer, sample.Summary(), err
		}
		answer = res.Answer
		nanos := float64(res.Duration.Nanoseconds())
		sample.Push(nanos)
		c.metrics.BenchmarkSample(strconv.Itoa(id), res.Duration)
		reporter.ReportSample(BenchmarkUpdate{
			ProblemID: id,
			Answer:    res.Answer,
			Sample:    nanos,
			Summary:   sample.Summary(),
			Iteration: i,
			Total:     iterations,
		})
	}
	summary := sample.Summary()
	c.record(ctx, id, answer, summary)
	return answer, summary, nil
}

// BenchmarkAll benchmarks every problem in the catalogue.
func (c *Controller) BenchmarkAll(ctx context.Context, iterations int, reporter BenchmarkReporter) ([]BenchmarkRow, error) {
	problems, err := c.Problems(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]BenchmarkRow, 0, len(problems))
	for _, p := range problems {
		answer, summary, err := c.BenchmarkProblem(ctx, p.ID, iterations, reporter)
		if apperrors.IsCancelled(err) {
			return rows, err
		}
		rows = append(rows, BenchmarkRow{Problem: p, Answer: answer, Summary: summary, Err: err})
	}
	return rows, nil
}

// Stop ends the running benchmark loop and cancels outstanding work. The
// session sample is kept.
func (c *Controller) Stop() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loop++
	c.running = false
	return c.dispatcher.CancelAll()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Epoch:        c.dispatcher.Epoch(),
		ProblemID:    c.problemID,
		HasSelection: c.hasSelection,
		Running:      c.running,
		LastAnswer:   c.lastAnswer,
		Summary:      c.sample.Summary(),
	}
}

// History returns up to limit recorded benchmark runs of id, newest first.
func (c *Controller) History(ctx context.Context, id, limit int) ([]store.BenchmarkRecord, error) {
	if c.history == nil {
		return nil, nil
	}
	return c.history.ListBenchmarks(ctx, id, limit)
}

// abandon stops loop if it still owns the unit.
func (c *Controller) abandon(loop uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loop != loop {
		return
	}
	c.loop++
	c.running = false
	c.dispatcher.CancelAll()
}

func (c *Controller) record(ctx context.Context, id int, answer string, summary stats.Summary) {
	if c.history == nil || summary.N == 0 {
		return
	}
	rec := &store.BenchmarkRecord{
		ProblemID:  id,
		Answer:     answer,
		Iterations: summary.N,
		MeanNanos:  summary.Mean,
		CreatedAt:  time.Now().UTC(),
	}
	if summary.HasStdDev {
		sd := summary.StdDev
		rec.StdDevNanos = &sd
	}
	if err := c.history.SaveBenchmark(ctx, rec); err != nil {
		c.logger.Warn("benchmark history not saved", logging.Int("problem", id), logging.Err(err))
	}
}
