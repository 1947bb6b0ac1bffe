// Package server exposes the controller over HTTP: problem listing, solving,
// benchmarking, cancellation, the persisted selection, benchmark history and
// Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/peuler/internal/euler"
	"github.com/agbru/peuler/internal/logging"
	"github.com/agbru/peuler/internal/orchestration"
	"github.com/agbru/peuler/internal/stats"
	"github.com/agbru/peuler/internal/store"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	maxBodySize       = 1 << 16
	maxIterations     = 100_000
)

// Controller is the part of orchestration.Controller served over HTTP.
type Controller interface {
	Problems(ctx context.Context) ([]euler.Info, error)
	SolveProblem(ctx context.Context, id int) (string, error)
	BenchmarkProblem(ctx context.Context, id, iterations int, reporter orchestration.BenchmarkReporter) (string, stats.Summary, error)
	Select(ctx context.Context, id int) (uint64, error)
	Selected() (int, bool)
	Stop() uint64
	Snapshot() orchestration.Snapshot
	History(ctx context.Context, id, limit int) ([]store.BenchmarkRecord, error)
}

var _ Controller = (*orchestration.Controller)(nil)

// Server wraps the chi router and application dependencies.
type Server struct {
	router     *chi.Mux
	ctrl       Controller
	logger     logging.Logger
	gatherer   prometheus.Gatherer
	metrics    *httpMetrics
	addr       string
	iterations int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l logging.Logger) Option { return func(s *Server) { s.logger = l } }

// WithIterations sets the benchmark length used when a request omits it.
func WithIterations(n int) Option { return func(s *Server) { s.iterations = n } }

// WithRegistry registers the HTTP collectors on reg and serves reg on
// /metrics. Without it the server uses a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.gatherer = reg }
}

// NewServer creates and configures a new HTTP server.
func NewServer(addr string, ctrl Controller, opts ...Option) *Server {
	srv := &Server{
		router:     chi.NewRouter(),
		ctrl:       ctrl,
		logger:     logging.NewNopLogger(),
		addr:       addr,
		iterations: 10,
	}
	for _, opt := range opts {
		opt(srv)
	}
	reg, ok := srv.gatherer.(*prometheus.Registry)
	if !ok {
		reg = prometheus.NewRegistry()
		srv.gatherer = reg
	}
	srv.metrics = newHTTPMetrics(reg)

	srv.router.Use(middleware.RequestID)
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(srv.loggingMiddleware)
	srv.router.Use(srv.metrics.middleware)
	srv.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	srv.routes()
	return srv
}

// routes registers all HTTP routes on the router.
func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/problems", s.handleListProblems)
		r.Get("/problems/{id}/solution", s.handleSolve)
		r.Post("/problems/{id}/benchmark", s.handleBenchmark)
		r.Post("/cancel", s.handleCancel)
		r.Get("/selection", s.handleGetSelection)
		r.Put("/selection", s.handlePutSelection)
		r.Get("/history/{id}", s.handleHistory)
	})
}

// Router returns the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server listening", logging.String("addr", s.addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// In-flight benchmarks hold requests open; cancel them first.
		s.ctrl.Stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	})
	return g.Wait()
}

// loggingMiddleware logs each request using the structured logger.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("duration", time.Since(start)),
			logging.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
