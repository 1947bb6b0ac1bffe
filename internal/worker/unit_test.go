package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	apperrors "github.com/agbru/peuler/internal/errors"
)

type transitionLog struct {
	mu   sync.Mutex
	seen []State
}

func (l *transitionLog) observe(_, to State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, to)
}

func (l *transitionLog) count(s State) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, v := range l.seen {
		if v == s {
			n++
		}
	}
	return n
}

func newTestUnit(t *testing.T, engine Engine, opts ...UnitOption) *Unit {
	t.Helper()
	u := NewUnit(InProcessSpawner{Engine: engine}, opts...)
	t.Cleanup(u.Terminate)
	return u
}

func TestUnitLifecycle(t *testing.T) {
	t.Parallel()
	log := &transitionLog{}
	u := newTestUnit(t, stubEngine{}, WithObserver(log.observe))

	if got := u.State(); got != StateTerminated {
		t.Fatalf("initial state = %s, want TERMINATED", got)
	}
	responses, err := u.Start(context.Background(), 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := u.State(); got != StateReady {
		t.Fatalf("state after Start = %s, want READY", got)
	}
	if epoch, ok := u.Epoch(); !ok || epoch != 1 {
		t.Errorf("Epoch() = %d, %v", epoch, ok)
	}

	if err := u.Send(Request{ID: "x", Epoch: 1, Kind: KindSolve, ProblemID: intPtr(1)}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	msg := <-responses
	if msg.Answer != "one" || msg.ID != "x" {
		t.Errorf("response = %+v", msg)
	}
	if got := u.State(); got != StateReady {
		t.Errorf("state after response = %s, want READY", got)
	}

	u.Terminate()
	if got := u.State(); got != StateTerminated {
		t.Errorf("state after Terminate = %s", got)
	}
	if _, ok := <-responses; ok {
		t.Error("responses channel should be closed after Terminate")
	}

	want := []State{StateStarting, StateReady, StateBusy, StateReady, StateTerminated}
	log.mu.Lock()
	defer log.mu.Unlock()
	if len(log.seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", log.seen, want)
	}
	for i := range want {
		if log.seen[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", log.seen, want)
		}
	}
}

func TestUnitTerminateIsIdempotentAndRestartReadiesOnce(t *testing.T) {
	t.Parallel()
	log := &transitionLog{}
	u := newTestUnit(t, stubEngine{}, WithObserver(log.observe))

	u.Terminate()
	u.Terminate()
	if _, err := u.Start(context.Background(), 2); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if n := log.count(StateReady); n != 1 {
		t.Errorf("READY transitions = %d, want 1", n)
	}
	if n := log.count(StateTerminated); n != 0 {
		t.Errorf("TERMINATED transitions = %d, want 0", n)
	}
}

func TestUnitSendGuards(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	u := newTestUnit(t, stubEngine{release: release})

	if err := u.Send(Request{ID: "a", Epoch: 1, Kind: KindProblems}); !errors.Is(err, ErrNotReady) {
		t.Errorf("Send before Start = %v, want ErrNotReady", err)
	}
	if _, err := u.Start(context.Background(), 5); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := u.Start(context.Background(), 5); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
	if err := u.Send(Request{ID: "a", Epoch: 4, Kind: KindProblems}); !errors.Is(err, ErrStaleEpoch) {
		t.Errorf("Send with old epoch = %v, want ErrStaleEpoch", err)
	}
	if err := u.Send(Request{ID: "b", Epoch: 5, Kind: KindSolve, ProblemID: intPtr(99)}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := u.State(); got != StateBusy {
		t.Fatalf("state = %s, want BUSY", got)
	}
	if err := u.Send(Request{ID: "c", Epoch: 5, Kind: KindProblems}); !errors.Is(err, ErrNotReady) {
		t.Errorf("Send while BUSY = %v, want ErrNotReady", err)
	}
}

func TestUnitTerminateWhileBusy(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	defer close(release)
	u := newTestUnit(t, stubEngine{release: release})

	responses, err := u.Start(context.Background(), 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := u.Send(Request{ID: "slow", Epoch: 1, Kind: KindSolve, ProblemID: intPtr(99)}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	u.Terminate()

	select {
	case _, ok := <-responses:
		if ok {
			t.Error("no response expected from a terminated unit")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("responses not closed after Terminate")
	}
}

type failingSpawner struct{ err error }

func (f failingSpawner) Spawn(context.Context) (Process, error) { return nil, f.err }

// silentProcess never announces readiness; Kill unblocks its reader.
type silentProcess struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func newSilentProcess() *silentProcess {
	r, w := io.Pipe()
	return &silentProcess{r: r, w: w}
}

func (p *silentProcess) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *silentProcess) Write(b []byte) (int, error) { return len(b), nil }
func (p *silentProcess) Kill() error                 { return p.w.CloseWithError(errKilled) }

type silentSpawner struct{ proc *silentProcess }

func (s silentSpawner) Spawn(context.Context) (Process, error) { return s.proc, nil }

// crashingProcess exits before sending anything.
type crashingProcess struct{}

func (crashingProcess) Read([]byte) (int, error)    { return 0, io.EOF }
func (crashingProcess) Write(b []byte) (int, error) { return len(b), nil }
func (crashingProcess) Kill() error                 { return nil }

type crashingSpawner struct{}

func (crashingSpawner) Spawn(context.Context) (Process, error) { return crashingProcess{}, nil }

func TestUnitInitializationErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		spawner Spawner
		opts    []UnitOption
		ctx     func() (context.Context, context.CancelFunc)
	}{
		{"spawn fails", failingSpawner{err: errors.New("exec format error")}, nil, nil},
		{"exits before ready", crashingSpawner{}, nil, nil},
		{"start timeout", silentSpawner{proc: newSilentProcess()}, []UnitOption{WithStartTimeout(50 * time.Millisecond)}, nil},
		{"context cancelled", silentSpawner{proc: newSilentProcess()}, []UnitOption{WithStartTimeout(0)}, func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), 50*time.Millisecond)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			u := NewUnit(tt.spawner, tt.opts...)
			ctx, cancel := context.Background(), context.CancelFunc(func() {})
			if tt.ctx != nil {
				ctx, cancel = tt.ctx()
			}
			defer cancel()

			_, err := u.Start(ctx, 1)
			var initErr apperrors.InitializationError
			if !errors.As(err, &initErr) {
				t.Fatalf("Start error = %v, want InitializationError", err)
			}
			if got := u.State(); got != StateTerminated {
				t.Errorf("state after failed start = %s, want TERMINATED", got)
			}
		})
	}
}

func TestUnitTerminatedBeforeReady(t *testing.T) {
	t.Parallel()
	u := NewUnit(silentSpawner{proc: newSilentProcess()}, WithStartTimeout(0))

	errCh := make(chan error, 1)
	go func() {
		_, err := u.Start(context.Background(), 1)
		errCh <- err
	}()
	deadline := time.Now().Add(5 * time.Second)
	for u.State() != StateStarting {
		if time.Now().After(deadline) {
			t.Fatal("unit never reached STARTING")
		}
		time.Sleep(time.Millisecond)
	}
	u.Terminate()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrTerminatedBeforeReady) {
			t.Errorf("Start error = %v, want ErrTerminatedBeforeReady", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Terminate")
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()
	for s, want := range map[State]string{
		StateTerminated: "TERMINATED",
		StateStarting:   "STARTING",
		StateReady:      "READY",
		StateBusy:       "BUSY",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
