package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/agbru/peuler/internal/logging"
)

// ProcessSpawner runs the unit as a child process speaking the protocol on
// its stdin and stdout. The child's stderr is forwarded line by line to
// Logger.
type ProcessSpawner struct {
	// Binary is the executable to run. Empty means the current executable.
	Binary string
	// Args are passed to Binary, typically the worker subcommand.
	Args []string
	// Env is appended to the parent's environment.
	Env    []string
	Logger logging.Logger
}

// Spawn starts the child process.
func (s ProcessSpawner) Spawn(context.Context) (Process, error) {
	binary := s.Binary
	if binary == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve own executable: %w", err)
		}
		binary = self
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	cmd := exec.Command(binary, s.Args...)
	cmd.Env = append(os.Environ(), s.Env...)
	configureProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	pid := cmd.Process.Pid
	p := &childProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		gone:   make(chan struct{}),
		waited: make(chan struct{}),
	}
	go forwardStderr(stderr, logger.With(logging.Int("pid", pid)))
	go func() {
		defer close(p.waited)
		// Wait closes stdout, so it runs only after a read has failed.
		<-p.gone
		if err := cmd.Wait(); err != nil {
			logger.Debug("execution unit exited", logging.Int("pid", pid), logging.Err(err))
		}
	}()
	return p, nil
}

type childProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	once   sync.Once
	gone   chan struct{}
	waited chan struct{}
}

func (p *childProcess) Read(b []byte) (int, error) {
	n, err := p.stdout.Read(b)
	if err != nil {
		p.markGone()
	}
	return n, err
}

func (p *childProcess) Write(b []byte) (int, error) { return p.stdin.Write(b) }

func (p *childProcess) markGone() {
	p.once.Do(func() { close(p.gone) })
}

// Kill destroys the child and its process group. The child is reaped once
// the reader has seen the end of its stdout.
func (p *childProcess) Kill() error {
	_ = p.stdin.Close()
	err := killProcessGroup(p.cmd)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func forwardStderr(r io.Reader, logger logging.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		logger.Info(scanner.Text(), logging.String("stream", "stderr"))
	}
}
