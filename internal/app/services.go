package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/agbru/peuler/internal/config"
	"github.com/agbru/peuler/internal/dispatch"
	"github.com/agbru/peuler/internal/logging"
	"github.com/agbru/peuler/internal/metrics"
	"github.com/agbru/peuler/internal/orchestration"
	"github.com/agbru/peuler/internal/store"
	"github.com/agbru/peuler/internal/worker"
)

// services is the set of long-lived components behind a command.
type services struct {
	ctrl       *orchestration.Controller
	dispatcher *dispatch.Dispatcher
	store      *store.SQLiteStore
	registry   *prometheus.Registry
	logger     logging.Logger
}

// newLogger builds the console logger at the configured level.
func newLogger(w io.Writer, level string) logging.Logger {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: true}
	return logging.NewZerologAdapter(zerolog.New(out).Level(lvl).With().Timestamp().Logger())
}

// openServices builds the execution unit, dispatcher and controller from the
// resolved configuration and restores the persisted selection.
func (a *Application) openServices(ctx context.Context) (*services, error) {
	rt := &services{
		registry: prometheus.NewRegistry(),
		logger:   newLogger(a.ErrWriter, a.Config.LogLevel),
	}
	rt.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	dm := metrics.NewDispatchMetrics(rt.registry)

	unit := worker.NewUnit(a.spawner(rt.logger),
		worker.WithLogger(rt.logger.With(logging.String("component", "unit"))),
		worker.WithStartTimeout(a.Config.StartTimeout),
		worker.WithObserver(func(from, to worker.State) {
			rt.logger.Debug("unit state", logging.String("from", from.String()), logging.String("to", to.String()))
		}),
	)
	rt.dispatcher = dispatch.New(unit,
		dispatch.WithLogger(rt.logger.With(logging.String("component", "dispatch"))),
		dispatch.WithMetrics(dm),
	)

	opts := []orchestration.Option{
		orchestration.WithLogger(rt.logger.With(logging.String("component", "controller"))),
		orchestration.WithMetrics(dm),
	}
	if a.Config.StatePath != "" {
		s, err := store.NewSQLiteStore(a.Config.StatePath)
		if err != nil {
			_ = rt.dispatcher.Close()
			return nil, fmt.Errorf("open state %s: %w", a.Config.StatePath, err)
		}
		rt.store = s
		opts = append(opts, orchestration.WithSelectionStore(s), orchestration.WithHistoryStore(s))
	}
	rt.ctrl = orchestration.NewController(rt.dispatcher, opts...)

	if err := rt.ctrl.Restore(ctx); err != nil {
		rt.logger.Warn("could not restore selection", logging.Err(err))
	}
	rt.logger.Debug("runtime ready", logging.String("config", a.Config.String()))
	return rt, nil
}

// spawner returns the execution unit host selected by the isolation mode.
func (a *Application) spawner(logger logging.Logger) worker.Spawner {
	if a.Config.Isolation == config.IsolationInProcess {
		return worker.InProcessSpawner{Engine: a.unitEngine(logger), Logger: logger}
	}
	binary := a.Config.WorkerBinary
	if binary == "" {
		if exe, err := os.Executable(); err == nil {
			binary = exe
		}
	}
	args := []string{"worker", "--log-level", a.Config.LogLevel}
	if a.Config.QuietGC {
		args = append(args, "--quiet-gc")
	}
	return worker.ProcessSpawner{
		Binary: binary,
		Args:   args,
		Logger: logger.With(logging.String("component", "worker")),
	}
}

// unitEngine returns the engine served by the execution unit.
func (a *Application) unitEngine(logger logging.Logger) worker.Engine {
	if a.Config.QuietGC {
		return worker.QuietGCEngine{Engine: a.Engine, Logger: logger}
	}
	return a.Engine
}

// Close stops the execution unit and closes the store.
func (rt *services) Close() {
	if err := rt.dispatcher.Close(); err != nil {
		rt.logger.Warn("dispatcher close", logging.Err(err))
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.logger.Warn("store close", logging.Err(err))
		}
	}
}
