package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/agbru/peuler/internal/euler"
	"github.com/agbru/peuler/internal/worker"
)

// Job is one unit of work. Build it with ListProblems, Solve or Benchmark.
type Job struct {
	Kind      worker.Kind
	ProblemID *int
}

// ListProblems asks the unit for its catalogue.
func ListProblems() Job { return Job{Kind: worker.KindProblems} }

// Solve asks the unit for the answer of problem id.
func Solve(id int) Job { return Job{Kind: worker.KindSolve, ProblemID: &id} }

// Benchmark asks the unit to solve problem id and time it.
func Benchmark(id int) Job { return Job{Kind: worker.KindBenchmark, ProblemID: &id} }

// Result is the successful outcome of a job. Only the fields relevant to the
// job's kind are set.
type Result struct {
	Problems []euler.Info
	Answer   string
	Duration time.Duration
}

// Future is the pending outcome of a submitted job. It settles exactly once,
// either with a Result or with an error.
type Future struct {
	id        string
	job       Job
	epoch     uint64
	submitted time.Time

	once sync.Once
	done chan struct{}
	res  Result
	err  error
}

func newFuture(id string, job Job, epoch uint64) *Future {
	return &Future{id: id, job: job, epoch: epoch, submitted: time.Now(), done: make(chan struct{})}
}

// ID returns the job id echoed by the execution unit.
func (f *Future) ID() string { return f.id }

// Job returns the submitted job.
func (f *Future) Job() Job { return f.job }

// Epoch returns the epoch the job was submitted under.
func (f *Future) Epoch() uint64 { return f.epoch }

// Done is closed once the future has settled.
func (f *Future) Done() <-chan struct{} { return f.done }

// Result returns the outcome. It blocks until the future settles.
func (f *Future) Result() (Result, error) {
	<-f.done
	return f.res, f.err
}

// Await waits for the outcome or for ctx to end. Giving up on the wait does
// not cancel the job; use Dispatcher.CancelAll for that.
func (f *Future) Await(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// settle records the outcome. Later calls are ignored; it reports whether
// this call won.
func (f *Future) settle(res Result, err error) bool {
	won := false
	f.once.Do(func() {
		f.res, f.err = res, err
		won = true
		close(f.done)
	})
	return won
}
