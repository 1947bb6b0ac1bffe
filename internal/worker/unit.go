package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	apperrors "github.com/agbru/peuler/internal/errors"
	"github.com/agbru/peuler/internal/logging"
)

// State is the lifecycle state of a Unit.
type State int32

const (
	// StateTerminated is both the initial state and the state after Terminate.
	StateTerminated State = iota
	StateStarting
	StateReady
	StateBusy
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "STARTING"
	case StateReady:
		return "READY"
	case StateBusy:
		return "BUSY"
	default:
		return "TERMINATED"
	}
}

var (
	// ErrNotReady is returned by Send when the unit cannot accept a request.
	ErrNotReady = errors.New("execution unit is not ready")
	// ErrStaleEpoch is returned by Send for a request of a previous epoch.
	ErrStaleEpoch = errors.New("request epoch does not match the unit")
	// ErrAlreadyStarted is returned by Start on a live unit.
	ErrAlreadyStarted = errors.New("execution unit already started")
	// ErrTerminatedBeforeReady is the cause of an InitializationError when
	// the unit was destroyed while starting.
	ErrTerminatedBeforeReady = errors.New("execution unit terminated before it was ready")
)

// Process is one live incarnation of a unit as seen from the host. Reads
// return the unit's frames; writes deliver requests. After Kill, reads must
// eventually fail so the host reader can exit.
type Process interface {
	io.Reader
	io.Writer
	Kill() error
}

// Spawner creates unit processes.
type Spawner interface {
	Spawn(ctx context.Context) (Process, error)
}

// DefaultStartTimeout bounds how long Start waits for the readiness frame.
const DefaultStartTimeout = 10 * time.Second

// UnitOption configures a Unit.
type UnitOption func(*Unit)

// WithLogger sets the unit's logger.
func WithLogger(l logging.Logger) UnitOption { return func(u *Unit) { u.logger = l } }

// WithStartTimeout overrides DefaultStartTimeout. Zero disables the limit.
func WithStartTimeout(d time.Duration) UnitOption { return func(u *Unit) { u.startTimeout = d } }

// WithObserver registers fn to be called on every state transition. fn runs
// with the unit's lock held and must not call back into the unit.
func WithObserver(fn func(from, to State)) UnitOption { return func(u *Unit) { u.observer = fn } }

type incarnation struct {
	proc      Process
	epoch     uint64
	responses chan Message
	ready     chan error
	done      chan struct{}
}

// Unit is the host-side handle on an isolated execution unit. It owns at
// most one live incarnation at a time and enforces the
// STARTING -> READY -> BUSY -> READY cycle, with TERMINATED reachable from
// every state.
type Unit struct {
	spawner      Spawner
	logger       logging.Logger
	startTimeout time.Duration
	observer     func(from, to State)

	mu    sync.Mutex
	state State
	inc   *incarnation
}

// NewUnit returns a unit in the TERMINATED state.
func NewUnit(spawner Spawner, opts ...UnitOption) *Unit {
	u := &Unit{
		spawner:      spawner,
		logger:       logging.NewNopLogger(),
		startTimeout: DefaultStartTimeout,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// State returns the current lifecycle state.
func (u *Unit) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Epoch returns the epoch of the live incarnation, or false if there is none.
func (u *Unit) Epoch() (uint64, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inc == nil {
		return 0, false
	}
	return u.inc.epoch, true
}

func (u *Unit) setStateLocked(to State) {
	from := u.state
	if from == to {
		return
	}
	u.state = to
	if u.observer != nil {
		u.observer(from, to)
	}
}

// Start creates a new incarnation bound to epoch and blocks until it signals
// readiness. It returns the incarnation's response channel, which is closed
// when the incarnation dies. Any failure before readiness is reported as an
// apperrors.InitializationError and leaves the unit TERMINATED.
func (u *Unit) Start(ctx context.Context, epoch uint64) (<-chan Message, error) {
	u.mu.Lock()
	if u.inc != nil {
		u.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	proc, err := u.spawner.Spawn(ctx)
	if err != nil {
		u.mu.Unlock()
		return nil, apperrors.InitializationError{Cause: err}
	}
	inc := &incarnation{
		proc:      proc,
		epoch:     epoch,
		responses: make(chan Message),
		ready:     make(chan error, 1),
		done:      make(chan struct{}),
	}
	u.inc = inc
	u.setStateLocked(StateStarting)
	u.mu.Unlock()

	go u.readLoop(inc)

	var timeout <-chan time.Time
	if u.startTimeout > 0 {
		timer := time.NewTimer(u.startTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var cause error
	select {
	case err := <-inc.ready:
		if err != nil {
			select {
			case <-inc.done:
				return nil, apperrors.InitializationError{Cause: ErrTerminatedBeforeReady}
			default:
			}
		}
		if err == nil {
			u.mu.Lock()
			defer u.mu.Unlock()
			if u.inc != inc {
				return nil, apperrors.InitializationError{Cause: ErrTerminatedBeforeReady}
			}
			u.setStateLocked(StateReady)
			u.logger.Debug("execution unit ready", logging.Uint64("epoch", epoch))
			return inc.responses, nil
		}
		cause = err
	case <-inc.done:
		return nil, apperrors.InitializationError{Cause: ErrTerminatedBeforeReady}
	case <-ctx.Done():
		cause = ctx.Err()
	case <-timeout:
		cause = fmt.Errorf("no readiness signal within %s", u.startTimeout)
	}

	u.terminate(inc)
	return nil, apperrors.InitializationError{Cause: cause}
}

// Send delivers req to the live incarnation and marks the unit BUSY. The
// request must belong to the incarnation's epoch.
func (u *Unit) Send(req Request) error {
	u.mu.Lock()
	inc := u.inc
	if inc == nil || u.state != StateReady {
		u.mu.Unlock()
		return ErrNotReady
	}
	if req.Epoch != inc.epoch {
		u.mu.Unlock()
		return ErrStaleEpoch
	}
	u.setStateLocked(StateBusy)
	u.mu.Unlock()

	// Written outside the lock: Terminate must be able to kill a unit whose
	// input is blocked.
	if err := WriteMessage(inc.proc, req); err != nil {
		return fmt.Errorf("send request %s: %w", req.ID, err)
	}
	return nil
}

// Terminate destroys the live incarnation, if any. It is idempotent.
func (u *Unit) Terminate() {
	u.mu.Lock()
	inc := u.inc
	u.mu.Unlock()
	if inc != nil {
		u.terminate(inc)
	}
}

func (u *Unit) terminate(inc *incarnation) {
	u.mu.Lock()
	if u.inc != inc {
		u.mu.Unlock()
		return
	}
	u.inc = nil
	close(inc.done)
	u.setStateLocked(StateTerminated)
	u.mu.Unlock()

	if err := inc.proc.Kill(); err != nil {
		u.logger.Warn("kill execution unit", logging.Uint64("epoch", inc.epoch), logging.Err(err))
	}
}

func (u *Unit) readLoop(inc *incarnation) {
	// Read to the end of the stream so a killed child can be reaped.
	defer func() { _, _ = io.Copy(io.Discard, inc.proc) }()
	defer close(inc.responses)

	var first Message
	if err := ReadMessage(inc.proc, &first); err != nil {
		inc.ready <- fmt.Errorf("waiting for readiness: %w", err)
		return
	}
	if first.Type != MsgReady {
		inc.ready <- fmt.Errorf("expected %q frame, got %q", MsgReady, first.Type)
		return
	}
	inc.ready <- nil

	for {
		var msg Message
		if err := ReadMessage(inc.proc, &msg); err != nil {
			select {
			case <-inc.done:
			default:
				u.logger.Warn("execution unit stream ended",
					logging.Uint64("epoch", inc.epoch), logging.Err(err))
			}
			return
		}

		u.mu.Lock()
		if u.inc == inc && u.state == StateBusy {
			u.setStateLocked(StateReady)
		}
		u.mu.Unlock()

		select {
		case inc.responses <- msg:
		case <-inc.done:
			return
		}
	}
}
