// Package euler is the problem engine hosted inside the execution unit. It
// knows how to list, solve and time a fixed catalogue of Project Euler
// problems.
package euler

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrUnavailableProblem is returned for ids outside the catalogue.
var ErrUnavailableProblem = errors.New("the requested problem is not available")

// SolveFunc computes the answer of one problem.
type SolveFunc func() string

// Problem is one catalogue entry.
type Problem struct {
	ID    int
	Title string
	solve SolveFunc
}

// String renders the problem the way the list command prints it.
func (p Problem) String() string {
	return fmt.Sprintf("Problem %04d: %s", p.ID, p.Title)
}

// Info is the serializable part of a Problem.
type Info struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Engine holds a catalogue ordered by ascending id.
type Engine struct {
	problems []Problem
	byID     map[int]int
}

// New builds an engine from the given problems. It panics on duplicate ids,
// which can only come from a programming error in the catalogue.
func New(problems ...Problem) *Engine {
	sorted := make([]Problem, len(problems))
	copy(sorted, problems)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[int]int, len(sorted))
	for i, p := range sorted {
		if _, dup := byID[p.ID]; dup {
			panic(fmt.Sprintf("euler: duplicate problem id %d", p.ID))
		}
		byID[p.ID] = i
	}
	return &Engine{problems: sorted, byID: byID}
}

// Default returns an engine over the built-in catalogue.
func Default() *Engine {
	return New(catalogue()...)
}

// NewProblem declares a catalogue entry.
func NewProblem(id int, title string, solve SolveFunc) Problem {
	return Problem{ID: id, Title: title, solve: solve}
}

// Problems returns every problem, ascending by id.
func (e *Engine) Problems() []Info {
	out := make([]Info, len(e.problems))
	for i, p := range e.problems {
		out[i] = Info{ID: p.ID, Title: p.Title}
	}
	return out
}

// Len returns the catalogue size.
func (e *Engine) Len() int { return len(e.problems) }

// Problem looks up a problem by id.
func (e *Engine) Problem(id int) (Problem, error) {
	i, ok := e.byID[id]
	if !ok {
		return Problem{}, ErrUnavailableProblem
	}
	return e.problems[i], nil
}

// Solve computes the answer of problem id.
func (e *Engine) Solve(id int) (string, error) {
	p, err := e.Problem(id)
	if err != nil {
		return "", err
	}
	return p.solve(), nil
}

// Benchmark solves problem id once and reports the wall-clock time it took.
func (e *Engine) Benchmark(id int) (string, time.Duration, error) {
	p, err := e.Problem(id)
	if err != nil {
		return "", 0, err
	}
	start := time.Now()
	answer := p.solve()
	return answer, time.Since(start), nil
}
