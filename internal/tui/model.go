// Package tui implements the interactive dashboard. Background work started
// from the dashboard tags its messages with the dispatcher epoch current at
// launch; Update drops any message whose epoch has since been superseded, so
// results for a previous selection never reach the screen.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/agbru/peuler/internal/errors"
	"github.com/agbru/peuler/internal/euler"
	"github.com/agbru/peuler/internal/metrics"
	"github.com/agbru/peuler/internal/orchestration"
	"github.com/agbru/peuler/internal/stats"
	"github.com/agbru/peuler/internal/sysmon"
)

// Session is the part of orchestration.Controller the dashboard drives.
type Session interface {
	Problems(ctx context.Context) ([]euler.Info, error)
	Select(ctx context.Context, id int) (uint64, error)
	Solve(ctx context.Context) (string, error)
	Benchmark(ctx context.Context, iterations int, reporter orchestration.BenchmarkReporter) (stats.Summary, error)
	Stop() uint64
	Snapshot() orchestration.Snapshot
}

var _ Session = (*orchestration.Controller)(nil)

// Layout constants for the TUI dashboard.
const (
	headerHeight   = 1
	footerHeight   = 1
	listWidth      = 36
	chartRows      = 4
	sampleWindow   = 120
	sysWindow      = 30
	tickInterval   = 500 * time.Millisecond
)

// Model is the root bubbletea model for the TUI dashboard.
type Model struct {
	header HeaderModel
	keymap KeyMap

	ctx        context.Context
	cancel     context.CancelFunc
	session    Session
	ref        *programRef
	iterations int

	width  int
	height int

	problems []euler.Info
	cursor   int

	epoch        uint64
	problemID    int
	hasSelection bool
	running      bool
	solving      bool
	answer       string
	summary      stats.Summary
	status       string
	err          error
	dropped      int

	samples *Series
	cpu     *Series
	sysMem  *Series
	mem     metrics.MemorySnapshot
}

// NewModel creates a dashboard over session. iterations is the benchmark
// length started by the bench key; zero or less runs until stopped.
func NewModel(parentCtx context.Context, session Session, iterations int, version string) Model {
	ctx, cancel := context.WithCancel(parentCtx)
	snap := session.Snapshot()
	return Model{
		header:       NewHeaderModel(version),
		keymap:       DefaultKeyMap(),
		ctx:          ctx,
		cancel:       cancel,
		session:      session,
		ref:          &programRef{},
		iterations:   iterations,
		epoch:        snap.Epoch,
		problemID:    snap.ProblemID,
		hasSelection: snap.HasSelection,
		answer:       snap.LastAnswer,
		summary:      snap.Summary,
		samples:      NewSeries(sampleWindow, ScaleRange),
		cpu:          NewSeries(sysWindow, ScalePercent),
		sysMem:       NewSeries(sysWindow, ScalePercent),
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), loadProblemsCmd(m.ctx, m.session))
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.header.SetWidth(msg.Width)
		spark := max(msg.Width-listWidth-30, sysWindow)
		m.cpu.SetWindow(spark)
		m.sysMem.SetWindow(spark)
		return m, nil

	case ProblemsMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.problems = msg.Problems
		for i, p := range m.problems {
			if m.hasSelection && p.ID == m.problemID {
				m.cursor = i
			}
		}
		return m, nil

	case SolvedMsg:
		if msg.Epoch != m.epoch {
			m.dropped++
			return m, nil
		}
		m.solving = false
		if msg.Err != nil {
			m.setError(msg.Err)
			return m, nil
		}
		m.answer = msg.Answer
		m.status = fmt.Sprintf("solved %04d", msg.ProblemID)
		return m, nil

	case SampleMsg:
		if msg.Epoch != m.epoch {
			m.dropped++
			return m, nil
		}
		m.samples.Add(msg.Update.Sample)
		m.summary = msg.Update.Summary
		m.answer = msg.Update.Answer
		return m, nil

	case BenchDoneMsg:
		if msg.Epoch != m.epoch {
			m.dropped++
			return m, nil
		}
		m.running = false
		if msg.Err != nil {
			m.setError(msg.Err)
			return m, nil
		}
		m.summary = msg.Summary
		m.status = fmt.Sprintf("benchmark finished after %d samples", msg.Summary.N)
		return m, nil

	case TickMsg:
		return m, tea.Batch(tickCmd(), sampleMemStatsCmd(), sampleSysStatsCmd(m.ctx))

	case MemStatsMsg:
		m.mem = msg.MemorySnapshot
		return m, nil

	case SysStatsMsg:
		m.cpu.Add(msg.CPUPercent)
		m.sysMem.Add(msg.MemPercent)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		if m.running {
			m.session.Stop()
		}
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(m.problems)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keymap.Select):
		if len(m.problems) == 0 {
			return m, nil
		}
		return m.selectProblem(m.problems[m.cursor].ID)

	case key.Matches(msg, m.keymap.Solve):
		if !m.hasSelection {
			m.status = "select a problem first"
			return m, nil
		}
		m.solving = true
		m.status = fmt.Sprintf("solving %04d", m.problemID)
		return m, solveCmd(m.ctx, m.session, m.epoch, m.problemID)

	case key.Matches(msg, m.keymap.Bench):
		if m.running {
			return m.stop(), nil
		}
		if !m.hasSelection {
			m.status = "select a problem first"
			return m, nil
		}
		m.running = true
		m.err = nil
		m.status = fmt.Sprintf("benchmarking %04d", m.problemID)
		return m, benchCmd(m.ctx, m.session, m.ref, m.epoch, m.iterations)

	case key.Matches(msg, m.keymap.Stop):
		if m.running {
			return m.stop(), nil
		}
		return m, nil
	}
	return m, nil
}

// selectProblem switches the selection. The epoch is updated before any new
// work is launched, so messages from earlier work are filtered out.
func (m Model) selectProblem(id int) (tea.Model, tea.Cmd) {
	epoch, err := m.session.Select(m.ctx, id)
	m.epoch = epoch
	m.problemID, m.hasSelection = id, true
	m.running, m.solving = false, false
	m.answer = ""
	m.summary = stats.Summary{}
	m.samples.Clear()
	m.err = nil
	m.status = fmt.Sprintf("selected %04d", id)
	if err != nil {
		m.setError(err)
	}
	return m, nil
}

func (m Model) stop() Model {
	m.epoch = m.session.Stop()
	m.running, m.solving = false, false
	m.status = "stopped"
	return m
}

func (m *Model) setError(err error) {
	m.err = err
	m.status = "error"
}

// View renders the entire dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	header := m.header.View(m.problemID, m.hasSelection, m.epoch)
	bodyHeight := max(m.height-headerHeight-footerHeight-2, 4)

	list := panelStyle.Width(listWidth).Height(bodyHeight).Render(m.renderList(bodyHeight))
	rightWidth := max(m.width-listWidth-4, 20)
	right := panelStyle.Width(rightWidth - 4).Height(bodyHeight).Render(m.renderDetail(rightWidth - 6))

	body := lipgloss.JoinHorizontal(lipgloss.Top, list, right)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderFooter())
}

func (m Model) renderList(height int) string {
	if len(m.problems) == 0 {
		return dimStyle.Render("loading problems...")
	}
	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := min(len(m.problems), start+height)

	var lines []string
	for i := start; i < end; i++ {
		p := m.problems[i]
		line := fmt.Sprintf("%04d %s", p.ID, p.Title)
		if len(line) > listWidth-2 {
			line = line[:listWidth-3] + "…"
		}
		switch {
		case m.hasSelection && p.ID == m.problemID:
			line = selectedStyle.Render(line)
		case i != m.cursor:
			line = dimStyle.Render(line)
		}
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("► ")
		}
		lines = append(lines, marker+line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDetail(width int) string {
	last, _ := m.samples.Latest()
	parts := []string{m.renderStatus(), "", renderStats(m.summary, last, m.answer)}

	if m.samples.Len() > 0 {
		chartWidth := max(width, 10)
		parts = append(parts, "", metricLabelStyle.Render("Recent samples"),
			chartBarStyle.Render(m.samples.Sparkline(chartWidth)))
		for _, row := range m.samples.Braille(chartWidth/2, chartRows) {
			parts = append(parts, chartBarStyle.Render(row))
		}
	}

	parts = append(parts, "", renderRuntime(m.mem, m.cpu, m.sysMem))
	return strings.Join(parts, "\n")
}

func (m Model) renderStatus() string {
	switch {
	case m.err != nil:
		return statusErrorStyle.Render(errorText(m.err))
	case m.running:
		return statusRunningStyle.Render("● " + m.status)
	case m.solving:
		return statusRunningStyle.Render("… " + m.status)
	case m.status != "":
		return statusIdleStyle.Render(m.status)
	}
	return statusIdleStyle.Render("idle")
}

func (m Model) renderFooter() string {
	var parts []string
	for _, b := range m.keymap.ShortHelp() {
		h := b.Help()
		parts = append(parts, footerKeyStyle.Render(h.Key)+" "+footerDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

func errorText(err error) string {
	if errors.Is(err, orchestration.ErrNoSelection) {
		return "select a problem first"
	}
	return "error: " + err.Error()
}

// Run is the public entry point for the TUI mode.
// It creates the bubbletea program, runs it, and returns the exit code.
func Run(ctx context.Context, session Session, iterations int, version string) int {
	// Rebuild styles from the current ui theme (set by the app via InitTheme).
	initTUIStyles()

	model := NewModel(ctx, session, iterations, version)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	// Inject the program reference before running so bridge goroutines can Send.
	model.ref.SetProgram(p)

	if _, err := p.Run(); err != nil {
		if apperrors.IsCancelled(err) || ctx.Err() != nil {
			session.Stop()
			return apperrors.ExitErrorCanceled
		}
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

func loadProblemsCmd(ctx context.Context, session Session) tea.Cmd {
	return func() tea.Msg {
		problems, err := session.Problems(ctx)
		return ProblemsMsg{Problems: problems, Err: err}
	}
}

func solveCmd(ctx context.Context, session Session, epoch uint64, id int) tea.Cmd {
	return func() tea.Msg {
		answer, err := session.Solve(ctx)
		return SolvedMsg{Epoch: epoch, ProblemID: id, Answer: answer, Err: err}
	}
}

// benchCmd runs a benchmark loop. Samples reach the program through the
// reporter; the final summary is the command's message.
func benchCmd(ctx context.Context, session Session, ref *programRef, epoch uint64, iterations int) tea.Cmd {
	return func() tea.Msg {
		summary, err := session.Benchmark(ctx, iterations, &TUIBenchmarkReporter{ref: ref, epoch: epoch})
		return BenchDoneMsg{Epoch: epoch, Summary: summary, Err: err}
	}
}

// tickCmd returns a command that sends a TickMsg after tickInterval.
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func sampleMemStatsCmd() tea.Cmd {
	return func() tea.Msg {
		return MemStatsMsg{MemorySnapshot: metrics.ReadMemory()}
	}
}

func sampleSysStatsCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		s := sysmon.Sample(ctx)
		return SysStatsMsg{CPUPercent: s.CPUPercent, MemPercent: s.MemPercent}
	}
}
