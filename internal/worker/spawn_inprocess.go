package worker

import (
	"context"
	"errors"
	"io"

	"github.com/agbru/peuler/internal/logging"
)

// errKilled is surfaced to readers and writers of a killed in-process unit.
var errKilled = errors.New("execution unit killed")

// InProcessSpawner hosts the unit in a goroutine connected through pipes.
// Killing it closes the pipes immediately; a solve already running keeps
// its goroutine until the solver returns, but its result is never read.
type InProcessSpawner struct {
	Engine Engine
	Logger logging.Logger
}

// Spawn starts Serve in a new goroutine.
func (s InProcessSpawner) Spawn(context.Context) (Process, error) {
	if s.Engine == nil {
		return nil, errors.New("in-process spawner has no engine")
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		err := Serve(ctx, reqR, respW, s.Engine, logger)
		if err == nil {
			err = io.EOF
		}
		respW.CloseWithError(err)
		reqR.CloseWithError(err)
	}()

	return &pipeProcess{reqW: reqW, respR: respR, cancel: cancel}, nil
}

type pipeProcess struct {
	reqW   *io.PipeWriter
	respR  *io.PipeReader
	cancel context.CancelFunc
}

func (p *pipeProcess) Read(b []byte) (int, error)  { return p.respR.Read(b) }
func (p *pipeProcess) Write(b []byte) (int, error) { return p.reqW.Write(b) }

func (p *pipeProcess) Kill() error {
	p.cancel()
	p.reqW.CloseWithError(errKilled)
	p.respR.CloseWithError(errKilled)
	return nil
}
