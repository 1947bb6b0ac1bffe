// Package app wires configuration, the execution unit, the dispatcher and
// the controller behind the peuler command tree.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agbru/peuler/internal/cli"
	"github.com/agbru/peuler/internal/config"
	apperrors "github.com/agbru/peuler/internal/errors"
	"github.com/agbru/peuler/internal/euler"
	"github.com/agbru/peuler/internal/ui"
)

// Application represents the peuler application instance.
type Application struct {
	Config    config.AppConfig
	Engine    *euler.Engine
	In        io.Reader
	ErrWriter io.Writer

	args      []string
	root      *cobra.Command
	presenter cli.CLIResultPresenter
	exitCode  int
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithEngine sets the problem engine hosted by in-process units and the
// worker command.
func WithEngine(e *euler.Engine) AppOption {
	return func(a *Application) { a.Engine = e }
}

// WithInput sets the reader used by the repl and worker commands.
func WithInput(r io.Reader) AppOption {
	return func(a *Application) { a.In = r }
}

// New creates a new Application for the given command line. args[0] is the
// program name.
func New(args []string, errWriter io.Writer, opts ...AppOption) *Application {
	app := &Application{
		Config:    config.Default(),
		In:        os.Stdin,
		ErrWriter: errWriter,
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.Engine == nil {
		app.Engine = euler.Default()
	}
	if len(args) > 0 {
		app.args = args[1:]
	}
	app.root = app.newRootCommand()
	return app
}

// Run executes the command line and returns the process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.root.SetArgs(a.args)
	a.root.SetIn(a.In)
	a.root.SetOut(out)
	a.root.SetErr(a.ErrWriter)

	if err := a.root.ExecuteContext(ctx); err != nil {
		var cfgErr apperrors.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", cfgErr)
			return apperrors.ExitErrorConfig
		}
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		fmt.Fprintf(a.ErrWriter, "Run '%s --help' for usage.\n", a.root.Name())
		return apperrors.ExitErrorConfig
	}
	return a.exitCode
}

func (a *Application) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "peuler",
		Short: "Solve and benchmark Project Euler problems in an isolated execution unit.",
		Long: `peuler runs Project Euler solutions inside a separate execution unit.
Work is dispatched one job at a time; selecting another problem or stopping
cancels everything outstanding without waiting for it to finish.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Resolve(&a.Config, cmd.Flags()); err != nil {
				return err
			}
			ui.InitTheme(a.Config.NoColor)
			return nil
		},
	}
	config.RegisterFlags(root.PersistentFlags(), &a.Config)

	root.AddCommand(
		a.newListCommand(),
		a.newSolveCommand(),
		a.newBenchCommand(),
		a.newHistoryCommand(),
		a.newREPLCommand(),
		a.newTUICommand(),
		a.newServeCommand(),
		a.newWorkerCommand(),
		a.newVersionCommand(),
	)
	return root
}
