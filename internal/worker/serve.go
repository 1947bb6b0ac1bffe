package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/agbru/peuler/internal/euler"
	"github.com/agbru/peuler/internal/logging"
)

// Engine is the computation hosted by a unit.
type Engine interface {
	Problems() []euler.Info
	Solve(id int) (string, error)
	Benchmark(id int) (string, time.Duration, error)
}

// Serve runs the unit side of the protocol: it announces readiness on w,
// then answers requests read from r one at a time until r reaches end of
// stream or ctx is done. Failures inside the engine, panics included, are
// reported to the host as computation errors and do not stop the loop.
func Serve(ctx context.Context, r io.Reader, w io.Writer, engine Engine, logger logging.Logger) error {
	if err := WriteMessage(w, Message{Type: MsgReady}); err != nil {
		return fmt.Errorf("announce ready: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var req Request
		if err := ReadMessage(r, &req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		resp := handle(engine, req)
		if resp.Error != nil {
			logger.Debug("request failed",
				logging.String("id", req.ID),
				logging.String("kind", string(req.Kind)),
				logging.String("error_kind", resp.Error.Kind),
				logging.String("message", resp.Error.Message))
		}
		if err := WriteMessage(w, resp); err != nil {
			return fmt.Errorf("write response %s: %w", req.ID, err)
		}
	}
}

func handle(engine Engine, req Request) (resp Message) {
	resp = Message{Type: MsgResult, ID: req.ID, Epoch: req.Epoch}
	fail := func(kind, msg string) Message {
		return Message{Type: MsgError, ID: req.ID, Epoch: req.Epoch, Error: &WireError{Kind: kind, Message: msg}}
	}

	defer func() {
		if r := recover(); r != nil {
			resp = fail(ErrorKindComputation, fmt.Sprintf("panic: %v", r))
		}
	}()

	if !req.Kind.Valid() {
		return fail(ErrorKindProtocol, fmt.Sprintf("unknown request kind %q", req.Kind))
	}
	if req.Kind.NeedsProblem() && req.ProblemID == nil {
		return fail(ErrorKindProtocol, fmt.Sprintf("%s request without problemId", req.Kind))
	}

	switch req.Kind {
	case KindProblems:
		resp.Problems = engine.Problems()
	case KindSolve:
		answer, err := engine.Solve(*req.ProblemID)
		if err != nil {
			return fail(ErrorKindComputation, err.Error())
		}
		resp.Answer = answer
	case KindBenchmark:
		answer, elapsed, err := engine.Benchmark(*req.ProblemID)
		if err != nil {
			return fail(ErrorKindComputation, err.Error())
		}
		resp.Answer = answer
		resp.DurationNanos = elapsed.Nanoseconds()
	}
	return resp
}
