package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/peuler/internal/orchestration"
)

// programRef is a shared reference to the tea.Program.
// Because bubbletea copies the model on every Update, we need a pointer
// that survives copies so the bridge goroutines can send messages.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference (thread-safe).
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send sends a message to the bubbletea program (thread-safe).
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// TUIBenchmarkReporter forwards benchmark samples to the dashboard, tagged
// with the epoch the loop was started under.
type TUIBenchmarkReporter struct {
	ref   *programRef
	epoch uint64
}

// Verify interface compliance.
var _ orchestration.BenchmarkReporter = (*TUIBenchmarkReporter)(nil)

// ReportSample sends a SampleMsg to the TUI.
func (t *TUIBenchmarkReporter) ReportSample(u orchestration.BenchmarkUpdate) {
	t.ref.Send(SampleMsg{Epoch: t.epoch, Update: u})
}
