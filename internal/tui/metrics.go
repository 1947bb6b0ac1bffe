package tui

import (
	"fmt"
	"strings"

	"github.com/agbru/peuler/internal/format"
	"github.com/agbru/peuler/internal/metrics"
	"github.com/agbru/peuler/internal/stats"
)

// renderStats renders the benchmark statistics of the current selection.
func renderStats(summary stats.Summary, last float64, answer string) string {
	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", metricLabelStyle.Render(fmt.Sprintf("%-9s", label)), value)
	}

	row("Samples", metricValueStyle.Render(fmt.Sprintf("%d", summary.N)))
	if summary.HasMean {
		mean, sd, unit := format.ScaleNanos(summary.Mean, summary.StdDev)
		row("Mean", metricValueStyle.Render(fmt.Sprintf("%.3f %s", mean, unit)))
		if summary.HasStdDev {
			row("Std dev", metricValueStyle.Render(fmt.Sprintf("%.3f %s", sd, unit)))
		} else {
			row("Std dev", dimStyle.Render("n/a"))
		}
		l, _, lunit := format.ScaleNanos(last, 0)
		row("Last", metricValueStyle.Render(fmt.Sprintf("%.3f %s", l, lunit)))
	} else {
		row("Mean", dimStyle.Render("n/a"))
		row("Std dev", dimStyle.Render("n/a"))
	}
	if answer != "" {
		row("Answer", answerStyle.Render(answer))
	} else {
		row("Answer", dimStyle.Render("-"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderRuntime renders host process and system figures.
func renderRuntime(mem metrics.MemorySnapshot, cpu, sysMem *Series) string {
	cpuNow, _ := cpu.Latest()
	memNow, _ := sysMem.Latest()
	lines := []string{
		fmt.Sprintf("%s %s  %s %s",
			metricLabelStyle.Render("Heap"), metricValueStyle.Render(formatBytes(mem.HeapAlloc)),
			metricLabelStyle.Render("GC"), metricValueStyle.Render(fmt.Sprintf("%d", mem.NumGC))),
		fmt.Sprintf("%s %s", metricLabelStyle.Render("Goroutines"),
			metricValueStyle.Render(fmt.Sprintf("%d", mem.Goroutines))),
		fmt.Sprintf("%s %s %5.1f%%", metricLabelStyle.Render("CPU"),
			cpuSparklineStyle.Render(cpu.Sparkline(0)), cpuNow),
		fmt.Sprintf("%s %s %5.1f%%", metricLabelStyle.Render("MEM"),
			memSparklineStyle.Render(sysMem.Sparkline(0)), memNow),
	}
	return strings.Join(lines, "\n")
}

// formatBytes renders a byte count using binary units.
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
