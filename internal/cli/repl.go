// Package cli provides the terminal presenters and the REPL (Read-Eval-Print
// Loop) for interactive problem selection, solving and benchmarking.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/agbru/peuler/internal/euler"
	"github.com/agbru/peuler/internal/format"
	"github.com/agbru/peuler/internal/orchestration"
	"github.com/agbru/peuler/internal/ui"
)

// REPLConfig holds configuration for the REPL session.
type REPLConfig struct {
	// Iterations is the default benchmark length of the bench command.
	Iterations int
	// HistoryLimit caps the rows printed by the history command.
	HistoryLimit int
}

// REPL is an interactive session over a Controller. Benchmarks run in the
// background so that select and stop stay responsive while they run.
type REPL struct {
	config    REPLConfig
	ctrl      *orchestration.Controller
	presenter CLIResultPresenter
	in        io.Reader

	outMu sync.Mutex
	out   io.Writer

	benchWG sync.WaitGroup
}

// NewREPL creates a new REPL instance.
func NewREPL(ctrl *orchestration.Controller, config REPLConfig) *REPL {
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = 10
	}
	return &REPL{
		config: config,
		ctrl:   ctrl,
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// SetInput sets a custom input reader (useful for testing).
func (r *REPL) SetInput(in io.Reader) {
	r.in = in
}

// SetOutput sets a custom output writer (useful for testing).
func (r *REPL) SetOutput(out io.Writer) {
	r.out = out
}

// Start runs the session until exit, EOF or ctx ends. A running benchmark
// is stopped before Start returns.
func (r *REPL) Start(ctx context.Context) {
	r.printBanner()
	r.printHelp()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		reader := bufio.NewReader(r.in)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	defer r.shutdown()
	for {
		r.printf("%speuler> %s", ui.ColorPrimary(), ui.ColorReset())
		select {
		case <-ctx.Done():
			r.printf("\nGoodbye!\n")
			return
		case err := <-readErr:
			if !errors.Is(err, io.EOF) {
				r.printf("%sRead error: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
			}
			r.printf("\nGoodbye!\n")
			return
		case line := <-lines:
			input := strings.TrimSpace(line)
			if input == "" {
				continue
			}
			if !r.processCommand(ctx, input) {
				return
			}
		}
	}
}

// shutdown stops a background benchmark and waits for it to report.
func (r *REPL) shutdown() {
	if r.ctrl.Snapshot().Running {
		r.ctrl.Stop()
	}
	r.benchWG.Wait()
}

func (r *REPL) printf(format string, args ...any) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// withOutput runs fn while holding the output lock.
func (r *REPL) withOutput(fn func(out io.Writer)) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fn(r.out)
}

func (r *REPL) printBanner() {
	r.printf("\n%s╔══════════════════════════════════════════════╗%s\n", ui.ColorPrimary(), ui.ColorReset())
	r.printf("%s║%s   %sProject Euler - Interactive Mode%s           %s║%s\n",
		ui.ColorPrimary(), ui.ColorReset(), ui.ColorBold(), ui.ColorReset(), ui.ColorPrimary(), ui.ColorReset())
	r.printf("%s╚══════════════════════════════════════════════╝%s\n\n", ui.ColorPrimary(), ui.ColorReset())
}

func (r *REPL) printHelp() {
	y, rs := ui.ColorYellow(), ui.ColorReset()
	r.printf("%sAvailable commands:%s\n", ui.ColorBold(), rs)
	r.printf("  %slist%s            - List available problems\n", y, rs)
	r.printf("  %sselect <id>%s     - Select a problem (cancels running work)\n", y, rs)
	r.printf("  %ssolve%s           - Solve the selected problem\n", y, rs)
	r.printf("  %sbench [n]%s       - Benchmark the selected problem in the background (default %d)\n", y, rs, r.config.Iterations)
	r.printf("  %sstop%s            - Stop the running benchmark\n", y, rs)
	r.printf("  %sstatus%s          - Show selection and statistics\n", y, rs)
	r.printf("  %shistory%s         - Show recorded benchmarks of the selected problem\n", y, rs)
	r.printf("  %shelp%s            - Display this help\n", y, rs)
	r.printf("  %sexit%s / %squit%s     - Exit interactive mode\n\n", y, rs, y, rs)
}

// processCommand parses and executes a user command.
// Returns false if the REPL should exit.
func (r *REPL) processCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "list", "ls":
		r.cmdList(ctx)
	case "select", "sel":
		r.cmdSelect(ctx, args)
	case "solve":
		r.cmdSolve(ctx)
	case "bench", "b":
		r.cmdBench(ctx, args)
	case "stop":
		r.cmdStop()
	case "status", "st":
		r.cmdStatus()
	case "history", "hist":
		r.cmdHistory(ctx)
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		r.printf("%sGoodbye!%s\n", ui.ColorGreen(), ui.ColorReset())
		return false
	default:
		// A bare number selects that problem.
		if _, err := strconv.Atoi(cmd); err == nil {
			r.cmdSelect(ctx, []string{cmd})
			return true
		}
		r.printf("%sUnknown command: %s%s\n", ui.ColorRed(), cmd, ui.ColorReset())
		r.printf("Type %shelp%s to see available commands.\n", ui.ColorYellow(), ui.ColorReset())
	}
	return true
}

func (r *REPL) cmdList(ctx context.Context) {
	problems, err := r.ctrl.Problems(ctx)
	if err != nil {
		r.withOutput(func(out io.Writer) { r.presenter.HandleError(err, out) })
		return
	}
	selected, _ := r.ctrl.Selected()
	r.withOutput(func(out io.Writer) {
		for _, p := range problems {
			marker := "  "
			if p.ID == selected {
				marker = ui.Paint(ui.ColorGreen(), "► ")
			}
			fmt.Fprint(out, marker)
			r.presenter.PresentProblems([]euler.Info{p}, out)
		}
	})
}

func (r *REPL) cmdSelect(ctx context.Context, args []string) {
	if len(args) == 0 {
		r.printf("%sUsage: select <id>%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		r.printf("%sInvalid problem id: %s%s\n", ui.ColorRed(), args[0], ui.ColorReset())
		return
	}
	epoch, err := r.ctrl.Select(ctx, id)
	if err != nil {
		r.withOutput(func(out io.Writer) { r.presenter.HandleError(err, out) })
		return
	}
	r.printf("Selected problem %s (epoch %d)\n", ui.Paint(ui.ColorPrimary(), fmt.Sprintf("%04d", id)), epoch)
}

func (r *REPL) cmdSolve(ctx context.Context) {
	answer, err := r.ctrl.Solve(ctx)
	if err != nil {
		r.reportError(err)
		return
	}
	r.printf("%s%s%s\n", ui.ColorGreen(), answer, ui.ColorReset())
}

func (r *REPL) cmdBench(ctx context.Context, args []string) {
	iterations := r.config.Iterations
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			r.printf("%sInvalid iteration count: %s%s\n", ui.ColorRed(), args[0], ui.ColorReset())
			return
		}
		iterations = n
	}
	snap := r.ctrl.Snapshot()
	if !snap.HasSelection {
		r.reportError(orchestration.ErrNoSelection)
		return
	}
	if snap.Running {
		r.printf("%sA benchmark is already running; use stop first.%s\n", ui.ColorYellow(), ui.ColorReset())
		return
	}

	id := snap.ProblemID
	r.printf("Benchmarking problem %04d (%d iterations) in the background.\n", id, iterations)
	r.benchWG.Add(1)
	go func() {
		defer r.benchWG.Done()
		summary, err := r.ctrl.Benchmark(ctx, iterations, nil)
		switch {
		case err != nil:
			r.withOutput(func(out io.Writer) {
				fmt.Fprintf(out, "\nbench %04d halted: ", id)
				r.presenter.HandleError(err, out)
			})
		case summary.N == 0:
			r.printf("\nbench %04d cancelled\n", id)
		default:
			answer := r.ctrl.Snapshot().LastAnswer
			r.printf("\nbench %04d: %s\n", id,
				format.BenchmarkLine(answer, summary.N, summary.Mean, summary.StdDev, summary.HasStdDev))
		}
	}()
}

func (r *REPL) cmdStop() {
	if !r.ctrl.Snapshot().Running {
		r.printf("No benchmark is running.\n")
		return
	}
	epoch := r.ctrl.Stop()
	r.printf("Stopped (epoch %d)\n", epoch)
}

func (r *REPL) cmdStatus() {
	snap := r.ctrl.Snapshot()
	c, rs := ui.ColorCyan(), ui.ColorReset()
	r.withOutput(func(out io.Writer) {
		fmt.Fprintf(out, "\n%sCurrent state:%s\n", ui.ColorBold(), rs)
		if snap.HasSelection {
			fmt.Fprintf(out, "  Problem:    %s%04d%s\n", c, snap.ProblemID, rs)
		} else {
			fmt.Fprintf(out, "  Problem:    %snone%s\n", c, rs)
		}
		fmt.Fprintf(out, "  Epoch:      %s%d%s\n", c, snap.Epoch, rs)
		fmt.Fprintf(out, "  Running:    %s%t%s\n", c, snap.Running, rs)
		fmt.Fprintf(out, "  Samples:    %s%d%s\n", c, snap.Summary.N, rs)
		if snap.Summary.HasMean {
			mean, sd, unit := format.ScaleNanos(snap.Summary.Mean, snap.Summary.StdDev)
			fmt.Fprintf(out, "  Mean:       %s%.6f %s%s\n", c, mean, unit, rs)
			if snap.Summary.HasStdDev {
				fmt.Fprintf(out, "  Std dev:    %s%.6f %s%s\n", c, sd, unit, rs)
			}
		}
		if snap.LastAnswer != "" {
			fmt.Fprintf(out, "  Answer:     %s%s%s\n", ui.ColorGreen(), snap.LastAnswer, rs)
		}
		fmt.Fprintln(out)
	})
}

func (r *REPL) cmdHistory(ctx context.Context) {
	id, ok := r.ctrl.Selected()
	if !ok {
		r.reportError(orchestration.ErrNoSelection)
		return
	}
	records, err := r.ctrl.History(ctx, id, r.config.HistoryLimit)
	if err != nil {
		r.reportError(err)
		return
	}
	r.withOutput(func(out io.Writer) { r.presenter.PresentHistory(id, records, out) })
}

func (r *REPL) reportError(err error) {
	if errors.Is(err, orchestration.ErrNoSelection) {
		r.printf("%sNo problem selected; use select <id>.%s\n", ui.ColorYellow(), ui.ColorReset())
		return
	}
	r.withOutput(func(out io.Writer) { r.presenter.HandleError(err, out) })
}
