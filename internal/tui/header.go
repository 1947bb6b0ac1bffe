package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/peuler/internal/format"
)

// HeaderModel renders the top bar: title, version, selection, epoch and
// session time.
type HeaderModel struct {
	startTime time.Time
	version   string
	width     int
}

// NewHeaderModel creates a new header.
func NewHeaderModel(version string) HeaderModel {
	return HeaderModel{startTime: time.Now(), version: version}
}

// SetWidth updates the available width.
func (h *HeaderModel) SetWidth(w int) {
	h.width = w
}

// View renders the header for the given selection and epoch.
func (h HeaderModel) View(problemID int, hasSelection bool, epoch uint64) string {
	titleText := "peuler"
	if h.version != "" && h.version != "dev" {
		titleText += " " + h.version
	}
	pipe := versionStyle.Render(" | ")

	problem := "no selection"
	if hasSelection {
		problem = fmt.Sprintf("problem %04d", problemID)
	}
	left := titleStyle.Render(titleText) + pipe +
		metricValueStyle.Render(problem) + pipe +
		versionStyle.Render(fmt.Sprintf("epoch %d", epoch))
	right := elapsedStyle.Render("Session: " + format.FormatExecutionDuration(time.Since(h.startTime)))

	gap := h.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
