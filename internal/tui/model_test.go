package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/peuler/internal/euler"
	"github.com/agbru/peuler/internal/orchestration"
	"github.com/agbru/peuler/internal/stats"
	"github.com/agbru/peuler/internal/ui"
)

// fakeSession records calls and advances its epoch like the dispatcher.
type fakeSession struct {
	mu       sync.Mutex
	epoch    uint64
	selected []int
	stops    int
}

func (f *fakeSession) Problems(context.Context) ([]euler.Info, error) {
	return []euler.Info{{ID: 1, Title: "Multiples of 3 or 5"}, {ID: 2, Title: "Even Fibonacci Numbers"}}, nil
}

func (f *fakeSession) Select(_ context.Context, id int) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.epoch++
	f.selected = append(f.selected, id)
	return f.epoch, nil
}

func (f *fakeSession) Solve(context.Context) (string, error) { return "233168", nil }

func (f *fakeSession) Benchmark(context.Context, int, orchestration.BenchmarkReporter) (stats.Summary, error) {
	return stats.Summary{}, nil
}

func (f *fakeSession) Stop() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.epoch++
	f.stops++
	return f.epoch
}

func (f *fakeSession) Snapshot() orchestration.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return orchestration.Snapshot{Epoch: f.epoch}
}

func runeKey(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

func newTestModel(t *testing.T) (Model, *fakeSession) {
	t.Helper()
	ui.SetCurrentTheme(ui.NoColorTheme)
	initTUIStyles()

	fs := &fakeSession{}
	m := NewModel(context.Background(), fs, 10, "dev")
	t.Cleanup(m.cancel)

	msg := loadProblemsCmd(m.ctx, fs)()
	updated, _ := m.Update(msg)
	return updated.(Model), fs
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func TestModel_SelectAdvancesEpoch(t *testing.T) {
	m, fs := newTestModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if !m.hasSelection || m.problemID != 2 {
		t.Fatalf("selection = %d (%t), want 2", m.problemID, m.hasSelection)
	}
	if m.epoch != 1 {
		t.Errorf("epoch = %d, want 1", m.epoch)
	}
	if len(fs.selected) != 1 || fs.selected[0] != 2 {
		t.Errorf("session selections = %v, want [2]", fs.selected)
	}
}

func TestModel_DropsStaleMessages(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter}) // epoch 1, problem 1

	m, cmd := update(t, m, runeKey('r'))
	if cmd == nil {
		t.Fatal("expected a solve command")
	}
	solved := cmd()

	// Switching problems before the answer arrives makes it stale.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter}) // epoch 2

	m, _ = update(t, m, solved)
	m, _ = update(t, m, SampleMsg{Epoch: 1, Update: orchestration.BenchmarkUpdate{Sample: 5, Summary: stats.Summary{N: 1}}})
	m, _ = update(t, m, BenchDoneMsg{Epoch: 1, Err: errors.New("late failure")})

	if m.answer != "" {
		t.Errorf("stale answer applied: %q", m.answer)
	}
	if m.samples.Len() != 0 || m.summary.N != 0 {
		t.Errorf("stale sample applied: len=%d N=%d", m.samples.Len(), m.summary.N)
	}
	if m.err != nil {
		t.Errorf("stale error applied: %v", m.err)
	}
	if m.dropped != 3 {
		t.Errorf("dropped = %d, want 3", m.dropped)
	}
}

func TestModel_CurrentMessagesApply(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = update(t, m, SolvedMsg{Epoch: m.epoch, ProblemID: 1, Answer: "233168"})
	if m.answer != "233168" {
		t.Errorf("answer = %q, want 233168", m.answer)
	}

	summary := stats.Summary{N: 2, Mean: 1500, HasMean: true, StdDev: 500, HasStdDev: true}
	m, _ = update(t, m, SampleMsg{Epoch: m.epoch, Update: orchestration.BenchmarkUpdate{Answer: "233168", Sample: 2000, Summary: summary}})
	if last, _ := m.samples.Latest(); last != 2000 || m.summary != summary {
		t.Errorf("sample not applied: last=%f summary=%+v", last, m.summary)
	}
}

func TestModel_BenchToggleStops(t *testing.T) {
	m, fs := newTestModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, cmd := update(t, m, runeKey('b'))
	if cmd == nil || !m.running {
		t.Fatal("expected benchmark to start")
	}
	started := m.epoch

	m, _ = update(t, m, runeKey('b'))
	if m.running {
		t.Error("expected benchmark to stop")
	}
	if fs.stops != 1 || m.epoch != started+1 {
		t.Errorf("stops=%d epoch=%d, want 1 and %d", fs.stops, m.epoch, started+1)
	}

	m, _ = update(t, m, SampleMsg{Epoch: started, Update: orchestration.BenchmarkUpdate{Sample: 1}})
	if m.samples.Len() != 0 {
		t.Error("sample from stopped loop was applied")
	}
}

func TestModel_BenchRequiresSelection(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := update(t, m, runeKey('b'))
	if cmd != nil || m.running {
		t.Error("benchmark started without a selection")
	}
	if m.status == "" {
		t.Error("expected a hint in the status line")
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := update(t, m, runeKey('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if m.ctx.Err() == nil {
		t.Error("expected model context to be cancelled")
	}
}

func TestModel_View(t *testing.T) {
	m, _ := newTestModel(t)
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View before sizing = %q", got)
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, SampleMsg{Epoch: m.epoch, Update: orchestration.BenchmarkUpdate{
		Sample: 1500, Summary: stats.Summary{N: 1, Mean: 1500, HasMean: true},
	}})

	view := m.View()
	for _, want := range []string{"peuler", "problem 0001", "Multiples of 3 or 5", "Samples", "quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
