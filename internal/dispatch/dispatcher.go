package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agbru/peuler/internal/errors"
	"github.com/agbru/peuler/internal/logging"
	"github.com/agbru/peuler/internal/metrics"
	"github.com/agbru/peuler/internal/worker"
)

var tracer = otel.Tracer("github.com/agbru/peuler/internal/dispatch")

// errUnitExited rejects the in-flight job when the unit's stream ends
// without a cancel-all.
var errUnitExited = errors.New("execution unit exited while the job was in flight")

// Unit is the part of worker.Unit the dispatcher drives.
type Unit interface {
	Start(ctx context.Context, epoch uint64) (<-chan worker.Message, error)
	Send(req worker.Request) error
	Terminate()
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(l logging.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.DispatchMetrics) Option { return func(d *Dispatcher) { d.metrics = m } }

// generation is the queue and consumer loop of one epoch.
type generation struct {
	epoch    uint64
	ctx      context.Context
	cancel   context.CancelFunc
	queue    []*Future
	inflight *Future
	wake     chan struct{}
	done     chan struct{}
}

// Dispatcher serializes jobs onto a single execution unit. Jobs of the
// current epoch run one at a time in submission order. CancelAll abandons
// every job of the current epoch, destroys the unit and opens a new epoch.
type Dispatcher struct {
	unit    Unit
	logger  logging.Logger
	metrics *metrics.DispatchMetrics

	mu     sync.Mutex
	epoch  uint64
	gen    *generation
	closed bool
}

// New returns a dispatcher driving unit and starts the unit in the
// background.
func New(unit Unit, opts ...Option) *Dispatcher {
	d := &Dispatcher{unit: unit, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(d)
	}
	d.gen = d.newGeneration(d.epoch)
	d.metrics.SetEpoch(d.epoch)
	go d.run(d.gen, nil)
	return d
}

func (d *Dispatcher) newGeneration(epoch uint64) *generation {
	ctx, cancel := context.WithCancel(context.Background())
	return &generation{
		epoch:  epoch,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Epoch returns the current epoch.
func (d *Dispatcher) Epoch() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.epoch
}

// Pending returns how many jobs of the current epoch are queued or in flight.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.gen.queue)
	if d.gen.inflight != nil {
		n++
	}
	return n
}

// Submit enqueues job under the current epoch and returns immediately.
// Malformed jobs are rejected with an apperrors.ProtocolError without
// reaching the unit.
func (d *Dispatcher) Submit(job Job) *Future {
	f := newFuture(ulid.Make().String(), job, 0)
	d.metrics.JobSubmitted(string(job.Kind))

	if err := validate(job); err != nil {
		d.reject(f, err)
		return f
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.reject(f, apperrors.ErrClosed)
		return f
	}
	g := d.gen
	f.epoch = g.epoch
	g.queue = append(g.queue, f)
	d.metrics.SetQueueDepth(len(g.queue))
	d.mu.Unlock()

	select {
	case g.wake <- struct{}{}:
	default:
	}
	return f
}

func validate(job Job) error {
	if !job.Kind.Valid() {
		return apperrors.ProtocolError{Kind: string(job.Kind), Message: "unknown request kind"}
	}
	if job.Kind.NeedsProblem() && job.ProblemID == nil {
		return apperrors.ProtocolError{Kind: string(job.Kind), Message: "problem id is required"}
	}
	return nil
}

// CancelAll abandons every queued and in-flight job of the current epoch,
// rejecting each with an apperrors.CancelledError before returning, then
// restarts the unit under a new epoch. It returns the new epoch.
func (d *Dispatcher) CancelAll() uint64 {
	d.mu.Lock()
	if d.closed {
		epoch := d.epoch
		d.mu.Unlock()
		return epoch
	}
	old := d.gen
	abandoned := old.drainLocked()
	old.cancel()
	d.epoch++
	d.gen = d.newGeneration(d.epoch)
	epoch, next := d.epoch, d.gen
	d.metrics.SetEpoch(epoch)
	d.metrics.SetQueueDepth(0)
	d.mu.Unlock()

	d.unit.Terminate()
	for _, f := range abandoned {
		d.reject(f, apperrors.CancelledError{Epoch: old.epoch, Reason: "cancelled by a newer request"})
	}
	d.logger.Info("dispatcher epoch advanced",
		logging.Uint64("epoch", epoch), logging.Int("abandoned", len(abandoned)))

	go d.run(next, old.done)
	return epoch
}

// Close cancels all outstanding jobs with apperrors.ErrClosed, destroys the
// unit and waits for the consumer loop to exit. Later submissions are
// rejected with apperrors.ErrClosed.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	g := d.gen
	abandoned := g.drainLocked()
	g.cancel()
	d.mu.Unlock()

	d.unit.Terminate()
	for _, f := range abandoned {
		d.reject(f, apperrors.ErrClosed)
	}
	<-g.done
	return nil
}

// drainLocked empties the queue, in-flight job first. Callers hold d.mu.
func (g *generation) drainLocked() []*Future {
	var out []*Future
	if g.inflight != nil {
		out = append(out, g.inflight)
		g.inflight = nil
	}
	out = append(out, g.queue...)
	g.queue = nil
	return out
}

// next blocks until a job of g is available and marks it in flight. It
// returns nil once g is cancelled.
func (d *Dispatcher) next(g *generation) *Future {
	for {
		d.mu.Lock()
		if g.ctx.Err() == nil && len(g.queue) > 0 {
			f := g.queue[0]
			g.queue[0] = nil
			g.queue = g.queue[1:]
			g.inflight = f
			d.metrics.SetQueueDepth(len(g.queue))
			d.mu.Unlock()
			return f
		}
		d.mu.Unlock()

		select {
		case <-g.ctx.Done():
			return nil
		case <-g.wake:
		}
	}
}

// finish settles the in-flight job of g unless g was cancelled, in which
// case CancelAll or Close owns the rejection.
func (d *Dispatcher) finish(g *generation, f *Future, res Result, err error) {
	d.mu.Lock()
	if g.ctx.Err() != nil {
		d.mu.Unlock()
		return
	}
	if g.inflight == f {
		g.inflight = nil
	}
	d.mu.Unlock()

	if err != nil {
		d.reject(f, err)
		return
	}
	if f.settle(res, nil) {
		d.metrics.JobSettled(string(f.job.Kind), metrics.OutcomeOK, time.Since(f.submitted))
	}
}

func (d *Dispatcher) reject(f *Future, err error) {
	if f.settle(Result{}, err) {
		d.metrics.JobSettled(string(f.job.Kind), outcomeOf(err), time.Since(f.submitted))
	}
}

func outcomeOf(err error) string {
	var (
		initErr apperrors.InitializationError
		protErr apperrors.ProtocolError
	)
	switch {
	case apperrors.IsCancelled(err), errors.Is(err, apperrors.ErrClosed):
		return metrics.OutcomeCancelled
	case errors.As(err, &initErr):
		return metrics.OutcomeInit
	case errors.As(err, &protErr):
		return metrics.OutcomeProtocol
	default:
		return metrics.OutcomeComputation
	}
}

// run is the single consumer of g's queue. It waits for the previous
// generation's loop to release the unit, starts the unit eagerly, then
// dispatches jobs one at a time until g is cancelled.
func (d *Dispatcher) run(g *generation, prev <-chan struct{}) {
	defer close(g.done)
	if prev != nil {
		select {
		case <-prev:
		case <-g.ctx.Done():
			<-prev
			return
		}
	}
	// Whatever this generation started dies with it.
	defer d.unit.Terminate()

	responses, err := d.startUnit(g)
	if err != nil && g.ctx.Err() == nil {
		d.logger.Warn("execution unit start failed, retrying on next job",
			logging.Uint64("epoch", g.epoch), logging.Err(err))
	}

	for {
		f := d.next(g)
		if f == nil {
			return
		}

		if responses != nil && !d.drainIdle(responses) {
			d.logger.Warn("execution unit exited while idle, restarting", logging.Uint64("epoch", g.epoch))
			d.unit.Terminate()
			responses = nil
		}
		if responses == nil {
			responses, err = d.startUnit(g)
			if err != nil {
				if g.ctx.Err() != nil {
					return
				}
				d.finish(g, f, Result{}, err)
				continue
			}
		}

		alive, ok := d.dispatch(g, f, responses)
		if !ok {
			return
		}
		if !alive {
			d.unit.Terminate()
			responses = nil
		}
	}
}

// drainIdle discards frames that arrived while no job was in flight and
// reports whether the unit's stream is still open.
func (d *Dispatcher) drainIdle(responses <-chan worker.Message) bool {
	for {
		select {
		case _, open := <-responses:
			if !open {
				return false
			}
			d.metrics.StaleResponse()
		default:
			return true
		}
	}
}

func (d *Dispatcher) startUnit(g *generation) (<-chan worker.Message, error) {
	responses, err := d.unit.Start(g.ctx, g.epoch)
	d.metrics.UnitStarted(err)
	if err != nil {
		var initErr apperrors.InitializationError
		if !errors.As(err, &initErr) {
			err = apperrors.InitializationError{Cause: err}
		}
		return nil, err
	}
	return responses, nil
}

// dispatch sends f to the unit and waits for its response. alive is false
// when the unit must be recreated; ok is false when g was cancelled.
func (d *Dispatcher) dispatch(g *generation, f *Future, responses <-chan worker.Message) (alive, ok bool) {
	_, span := tracer.Start(g.ctx, "dispatch."+string(f.job.Kind),
		trace.WithAttributes(
			attribute.String("job.id", f.id),
			attribute.Int64("dispatch.epoch", int64(g.epoch)),
		))
	if f.job.ProblemID != nil {
		span.SetAttributes(attribute.Int("problem.id", *f.job.ProblemID))
	}
	defer span.End()

	settle := func(res Result, err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		d.finish(g, f, res, err)
	}

	req := worker.Request{ID: f.id, Epoch: g.epoch, Kind: f.job.Kind, ProblemID: f.job.ProblemID}
	if err := d.unit.Send(req); err != nil {
		if g.ctx.Err() != nil {
			span.SetStatus(codes.Error, "cancelled")
			return false, false
		}
		settle(Result{}, apperrors.ComputationError{JobID: f.id, Cause: err})
		return false, true
	}

	for {
		select {
		case <-g.ctx.Done():
			span.SetStatus(codes.Error, "cancelled")
			return false, false
		case msg, open := <-responses:
			if !open {
				if g.ctx.Err() != nil {
					span.SetStatus(codes.Error, "cancelled")
					return false, false
				}
				settle(Result{}, apperrors.ComputationError{JobID: f.id, Cause: errUnitExited})
				return false, true
			}
			if msg.Epoch != g.epoch || msg.ID != f.id {
				d.metrics.StaleResponse()
				d.logger.Debug("discarding stale response",
					logging.String("id", msg.ID), logging.Uint64("epoch", msg.Epoch),
					logging.String("want_id", f.id), logging.Uint64("want_epoch", g.epoch))
				continue
			}
			res, err := decode(f, msg)
			settle(res, err)
			return true, true
		}
	}
}

func decode(f *Future, msg worker.Message) (Result, error) {
	switch msg.Type {
	case worker.MsgResult:
		if msg.DurationNanos < 0 {
			return Result{}, apperrors.ProtocolError{Kind: string(f.job.Kind),
				Message: fmt.Sprintf("negative duration %d", msg.DurationNanos)}
		}
		return Result{
			Problems: msg.Problems,
			Answer:   msg.Answer,
			Duration: time.Duration(msg.DurationNanos),
		}, nil
	case worker.MsgError:
		if msg.Error == nil {
			return Result{}, apperrors.ComputationError{JobID: f.id}
		}
		if msg.Error.Kind == worker.ErrorKindProtocol {
			return Result{}, apperrors.ProtocolError{Kind: string(f.job.Kind), Message: msg.Error.Message}
		}
		return Result{}, apperrors.ComputationError{JobID: f.id, Message: msg.Error.Message}
	default:
		return Result{}, apperrors.ProtocolError{Kind: string(f.job.Kind),
			Message: fmt.Sprintf("unexpected frame type %q", msg.Type)}
	}
}
