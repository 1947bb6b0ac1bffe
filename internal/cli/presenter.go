package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	apperrors "github.com/agbru/peuler/internal/errors"
	"github.com/agbru/peuler/internal/euler"
	"github.com/agbru/peuler/internal/format"
	"github.com/agbru/peuler/internal/orchestration"
	"github.com/agbru/peuler/internal/stats"
	"github.com/agbru/peuler/internal/store"
	"github.com/agbru/peuler/internal/ui"
)

// CLIResultPresenter implements orchestration.ResultPresenter for terminal
// output.
type CLIResultPresenter struct{}

// Verify interface compliance.
var (
	_ orchestration.ResultPresenter = CLIResultPresenter{}
	_ orchestration.ErrorHandler    = CLIResultPresenter{}
)

// PresentProblems prints one "Problem 0001: title" line per problem.
func (CLIResultPresenter) PresentProblems(problems []euler.Info, out io.Writer) {
	for _, p := range problems {
		fmt.Fprintf(out, "Problem %s: %s\n", ui.Paint(ui.ColorPrimary(), fmt.Sprintf("%04d", p.ID)), p.Title)
	}
}

// PresentCount prints the number of available problems.
func (CLIResultPresenter) PresentCount(count int, out io.Writer) {
	fmt.Fprintln(out, count)
}

// PresentSolution prints the bare answer.
func (CLIResultPresenter) PresentSolution(_ euler.Info, answer string, out io.Writer) {
	fmt.Fprintln(out, answer)
}

// PresentSolutions renders a table of answers.
func (CLIResultPresenter) PresentSolutions(rows []orchestration.SolutionRow, out io.Writer) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Problem", "Title", "Answer"})
	for _, r := range rows {
		answer := r.Answer
		if r.Err != nil {
			answer = ui.Paint(ui.ColorRed(), r.Err.Error())
		}
		t.AppendRow(table.Row{fmt.Sprintf("%04d", r.Problem.ID), r.Problem.Title, answer})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	t.Render()
}

// PresentBenchmark prints the benchmark line of a single problem.
func (CLIResultPresenter) PresentBenchmark(_ euler.Info, answer string, summary stats.Summary, out io.Writer) {
	fmt.Fprintln(out, format.BenchmarkLine(answer, summary.N, summary.Mean, summary.StdDev, summary.HasStdDev))
}

// PresentBenchmarks renders a table of benchmark summaries.
func (CLIResultPresenter) PresentBenchmarks(rows []orchestration.BenchmarkRow, out io.Writer) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Problem", "Answer", "Iterations", "Mean", "Std dev"})
	for _, r := range rows {
		if r.Err != nil {
			t.AppendRow(table.Row{fmt.Sprintf("%04d", r.Problem.ID), ui.Paint(ui.ColorRed(), r.Err.Error()), r.Summary.N, "", ""})
			continue
		}
		mean, sd := statCells(r.Summary.Mean, r.Summary.StdDev, r.Summary.HasStdDev)
		t.AppendRow(table.Row{fmt.Sprintf("%04d", r.Problem.ID), r.Answer, r.Summary.N, mean, sd})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
}

// PresentHistory renders recorded benchmark runs, newest first.
func (CLIResultPresenter) PresentHistory(problemID int, records []store.BenchmarkRecord, out io.Writer) {
	if len(records) == 0 {
		fmt.Fprintf(out, "No benchmark recorded for problem %04d.\n", problemID)
		return
	}
	t := newTable(out)
	t.SetTitle(fmt.Sprintf("Problem %04d", problemID))
	t.AppendHeader(table.Row{"When", "Iterations", "Mean", "Std dev", "Answer"})
	for _, rec := range records {
		var sdNanos float64
		if rec.StdDevNanos != nil {
			sdNanos = *rec.StdDevNanos
		}
		mean, sd := statCells(rec.MeanNanos, sdNanos, rec.StdDevNanos != nil)
		t.AppendRow(table.Row{rec.CreatedAt.Local().Format("2006-01-02 15:04:05"), rec.Iterations, mean, sd, rec.Answer})
	}
	t.Render()
}

// HandleError prints err and returns the matching exit code.
func (CLIResultPresenter) HandleError(err error, out io.Writer) int {
	if err == nil {
		return apperrors.ExitSuccess
	}
	var (
		initErr apperrors.InitializationError
		compErr apperrors.ComputationError
		protErr apperrors.ProtocolError
	)
	switch {
	case apperrors.IsCancelled(err):
		fmt.Fprintf(out, "%sCancelled.%s\n", ui.ColorYellow(), ui.ColorReset())
	case errors.As(err, &initErr):
		fmt.Fprintf(out, "%sExecution unit unavailable: %v%s\n", ui.ColorRed(), initErr.Cause, ui.ColorReset())
	case errors.As(err, &compErr):
		fmt.Fprintf(out, "%sError: %v%s\n", ui.ColorRed(), compErr, ui.ColorReset())
	case errors.As(err, &protErr):
		fmt.Fprintf(out, "%sProtocol error: %v%s\n", ui.ColorRed(), protErr, ui.ColorReset())
	default:
		fmt.Fprintf(out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
	}
	return apperrors.ExitCodeFor(err)
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	return t
}

// statCells formats a mean and standard deviation in a shared unit.
func statCells(meanNanos, sdNanos float64, hasSD bool) (string, string) {
	mean, sd, unit := format.ScaleNanos(meanNanos, sdNanos)
	sdCell := "n/a"
	if hasSD {
		sdCell = fmt.Sprintf("%.3f %s", sd, unit)
	}
	return fmt.Sprintf("%.3f %s", mean, unit), sdCell
}
