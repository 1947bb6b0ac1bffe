package tui

import (
	"time"

	"github.com/agbru/peuler/internal/euler"
	"github.com/agbru/peuler/internal/metrics"
	"github.com/agbru/peuler/internal/orchestration"
	"github.com/agbru/peuler/internal/stats"
)

// Messages produced by background work carry the epoch they were started
// under. The model drops any whose epoch is no longer current.

// ProblemsMsg delivers the problem catalogue.
type ProblemsMsg struct {
	Problems []euler.Info
	Err      error
}

// SolvedMsg delivers the answer of a solve started at Epoch.
type SolvedMsg struct {
	Epoch     uint64
	ProblemID int
	Answer    string
	Err       error
}

// SampleMsg delivers one benchmark sample.
type SampleMsg struct {
	Epoch  uint64
	Update orchestration.BenchmarkUpdate
}

// BenchDoneMsg is sent when a benchmark loop returns.
type BenchDoneMsg struct {
	Epoch   uint64
	Summary stats.Summary
	Err     error
}

// TickMsg drives the periodic refresh.
type TickMsg time.Time

// MemStatsMsg carries a runtime memory snapshot.
type MemStatsMsg struct {
	metrics.MemorySnapshot
}

// SysStatsMsg carries system-wide CPU and memory usage.
type SysStatsMsg struct {
	CPUPercent float64
	MemPercent float64
}
