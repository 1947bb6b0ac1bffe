package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agbru/peuler/internal/cli"
	apperrors "github.com/agbru/peuler/internal/errors"
	"github.com/agbru/peuler/internal/euler"
	"github.com/agbru/peuler/internal/logging"
	"github.com/agbru/peuler/internal/server"
	"github.com/agbru/peuler/internal/tui"
	"github.com/agbru/peuler/internal/worker"
)

// withServices opens the services, runs fn and records its exit code.
func (a *Application) withServices(cmd *cobra.Command, fn func(ctx context.Context, rt *services) int) error {
	ctx := cmd.Context()
	rt, err := a.openServices(ctx)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		a.exitCode = apperrors.ExitErrorGeneric
		return nil
	}
	defer rt.Close()
	a.exitCode = fn(ctx, rt)
	return nil
}

func parseProblemID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, apperrors.NewConfigError("invalid problem id %q", arg)
	}
	return id, nil
}

func (a *Application) newListCommand() *cobra.Command {
	var count bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the available problems.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withServices(cmd, func(ctx context.Context, rt *services) int {
				problems, err := rt.ctrl.Problems(ctx)
				if err != nil {
					return a.presenter.HandleError(err, cmd.ErrOrStderr())
				}
				if count {
					a.presenter.PresentCount(len(problems), cmd.OutOrStdout())
				} else {
					a.presenter.PresentProblems(problems, cmd.OutOrStdout())
				}
				return apperrors.ExitSuccess
			})
		},
	}
	cmd.Flags().BoolVar(&count, "count", false, "print only the number of problems")
	return cmd
}

func (a *Application) newSolveCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "solve [id]",
		Short: "Solve one problem, or all of them with --all.",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				return a.withServices(cmd, func(ctx context.Context, rt *services) int {
					rows, err := rt.ctrl.SolveAll(ctx)
					a.presenter.PresentSolutions(rows, cmd.OutOrStdout())
					return a.presenter.HandleError(err, cmd.ErrOrStderr())
				})
			}
			id, err := parseProblemID(args[0])
			if err != nil {
				return err
			}
			return a.withServices(cmd, func(ctx context.Context, rt *services) int {
				answer, err := rt.ctrl.SolveProblem(ctx, id)
				if err != nil {
					return a.presenter.HandleError(err, cmd.ErrOrStderr())
				}
				a.presenter.PresentSolution(euler.Info{ID: id}, answer, cmd.OutOrStdout())
				return apperrors.ExitSuccess
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "solve every problem")
	return cmd
}

func (a *Application) newBenchCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "bench [id]",
		Short: "Benchmark one problem, or all of them with --all.",
		Long: `Benchmark runs the solution repeatedly in the execution unit and reports
the mean and sample standard deviation of its timings. The iteration count
comes from --iterations.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			n := a.Config.Iterations
			if all {
				return a.withServices(cmd, func(ctx context.Context, rt *services) int {
					progress := cli.NewBenchmarkProgress("benchmarking", cmd.ErrOrStderr())
					progress.Start()
					rows, err := rt.ctrl.BenchmarkAll(ctx, n, progress)
					progress.Stop()
					a.presenter.PresentBenchmarks(rows, cmd.OutOrStdout())
					return a.presenter.HandleError(err, cmd.ErrOrStderr())
				})
			}
			id, err := parseProblemID(args[0])
			if err != nil {
				return err
			}
			return a.withServices(cmd, func(ctx context.Context, rt *services) int {
				progress := cli.NewBenchmarkProgress(fmt.Sprintf("%04d", id), cmd.ErrOrStderr())
				progress.Start()
				answer, summary, err := rt.ctrl.BenchmarkProblem(ctx, id, n, progress)
				progress.Stop()
				if err != nil {
					return a.presenter.HandleError(err, cmd.ErrOrStderr())
				}
				a.presenter.PresentBenchmark(euler.Info{ID: id}, answer, summary, cmd.OutOrStdout())
				return apperrors.ExitSuccess
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "benchmark every problem")
	return cmd
}

func (a *Application) newHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show recorded benchmark runs of a problem.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProblemID(args[0])
			if err != nil {
				return err
			}
			return a.withServices(cmd, func(ctx context.Context, rt *services) int {
				records, err := rt.ctrl.History(ctx, id, limit)
				if err != nil {
					return a.presenter.HandleError(err, cmd.ErrOrStderr())
				}
				a.presenter.PresentHistory(id, records, cmd.OutOrStdout())
				return apperrors.ExitSuccess
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of runs to show")
	return cmd
}

func (a *Application) newREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withServices(cmd, func(ctx context.Context, rt *services) int {
				r := cli.NewREPL(rt.ctrl, cli.REPLConfig{Iterations: a.Config.Iterations})
				r.SetInput(cmd.InOrStdin())
				r.SetOutput(cmd.OutOrStdout())
				r.Start(ctx)
				return apperrors.ExitSuccess
			})
		},
	}
}

func (a *Application) newTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive dashboard.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withServices(cmd, func(ctx context.Context, rt *services) int {
				return tui.Run(ctx, rt.ctrl, a.Config.Iterations, Version)
			})
		},
	}
}

func (a *Application) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and Prometheus metrics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withServices(cmd, func(ctx context.Context, rt *services) int {
				srv := server.NewServer(a.Config.Listen, rt.ctrl,
					server.WithLogger(rt.logger.With(logging.String("component", "http"))),
					server.WithIterations(a.Config.Iterations),
					server.WithRegistry(rt.registry),
				)
				if err := srv.Run(ctx); err != nil {
					rt.logger.Error("serve", err)
					return apperrors.ExitErrorGeneric
				}
				return apperrors.ExitSuccess
			})
		},
	}
}

// newWorkerCommand runs the unit side of the protocol on stdin and stdout.
// It is started by the process spawner and is not meant for direct use.
func (a *Application) newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "worker",
		Short:  "Run as an execution unit on stdin/stdout.",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(cmd.ErrOrStderr(), a.Config.LogLevel)
			if err := worker.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a.unitEngine(logger), logger); err != nil {
				logger.Error("worker stopped", err)
				a.exitCode = apperrors.ExitErrorGeneric
			}
			return nil
		},
	}
}

func (a *Application) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			PrintVersion(cmd.OutOrStdout())
		},
	}
}
