package worker

import (
	"runtime/debug"
	"sync"
	"testing"
	"time"

	"github.com/agbru/peuler/internal/euler"
)

// currentGCPercent reads the GC percent without changing it.
func currentGCPercent() int {
	p := debug.SetGCPercent(100)
	debug.SetGCPercent(p)
	return p
}

func TestQuietGCEngine_RestoresSettings(t *testing.T) {
	before := currentGCPercent()
	beforeLimit := debug.SetMemoryLimit(-1)

	var during int
	e := QuietGCEngine{Engine: euler.New(euler.NewProblem(1, "probe", func() string {
		during = currentGCPercent()
		return "ok"
	}))}

	answer, elapsed, err := e.Benchmark(1)
	if err != nil || answer != "ok" {
		t.Fatalf("Benchmark = %q, %v", answer, err)
	}
	if elapsed < 0 {
		t.Errorf("elapsed = %s", elapsed)
	}
	if during != -1 {
		t.Errorf("GC percent during solve = %d, want -1", during)
	}
	if got := currentGCPercent(); got != before {
		t.Errorf("GC percent after = %d, want %d", got, before)
	}
	if got := debug.SetMemoryLimit(-1); got != beforeLimit {
		t.Errorf("memory limit after = %d, want %d", got, beforeLimit)
	}
}

func TestQuietGCEngine_Concurrent(t *testing.T) {
	before := currentGCPercent()
	e := QuietGCEngine{Engine: euler.New(euler.NewProblem(1, "sleepy", func() string {
		time.Sleep(5 * time.Millisecond)
		return "ok"
	}))}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := e.Benchmark(1); err != nil {
				t.Errorf("Benchmark: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := currentGCPercent(); got != before {
		t.Errorf("GC percent after concurrent use = %d, want %d", got, before)
	}
}

func TestQuietGCEngine_SolvePassesThrough(t *testing.T) {
	e := QuietGCEngine{Engine: euler.New(euler.NewProblem(3, "three", func() string { return "3" }))}
	if got, err := e.Solve(3); err != nil || got != "3" {
		t.Errorf("Solve = %q, %v", got, err)
	}
	if len(e.Problems()) != 1 {
		t.Errorf("Problems = %v", e.Problems())
	}
}
