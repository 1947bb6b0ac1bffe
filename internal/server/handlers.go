package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/agbru/peuler/internal/errors"
	"github.com/agbru/peuler/internal/format"
	"github.com/agbru/peuler/internal/logging"
	"github.com/agbru/peuler/internal/orchestration"
	"github.com/agbru/peuler/internal/store"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type healthResponse struct {
	Status string `json:"status"`
	Epoch  uint64 `json:"epoch"`
}

type problemResponse struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type solutionResponse struct {
	ID     int    `json:"id"`
	Answer string `json:"answer"`
}

type benchmarkResponse struct {
	ID          int      `json:"id"`
	Answer      string   `json:"answer"`
	Iterations  int      `json:"iterations"`
	MeanNanos   float64  `json:"meanNanos"`
	StdDevNanos *float64 `json:"stddevNanos"`
	Mean        float64  `json:"mean"`
	StdDev      *float64 `json:"stddev"`
	Unit        string   `json:"unit"`
}

type epochResponse struct {
	Epoch uint64 `json:"epoch"`
}

type selectionRequest struct {
	ID int `json:"id"`
}

type selectionResponse struct {
	ID    int    `json:"id"`
	Epoch uint64 `json:"epoch"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Epoch: s.ctrl.Snapshot().Epoch})
}

func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := s.ctrl.Problems(r.Context())
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	resp := make([]problemResponse, len(problems))
	for i, p := range problems {
		resp[i] = problemResponse{ID: p.ID, Title: p.Title}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	id, ok := s.problemID(w, r)
	if !ok {
		return
	}
	answer, err := s.ctrl.SolveProblem(r.Context(), id)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, solutionResponse{ID: id, Answer: answer})
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	id, ok := s.problemID(w, r)
	if !ok {
		return
	}
	iterations, err := parseIntQuery(r, "iterations", s.iterations)
	if err != nil || iterations <= 0 || iterations > maxIterations {
		s.writeError(w, http.StatusBadRequest, "iterations must be between 1 and "+strconv.Itoa(maxIterations))
		return
	}

	answer, summary, err := s.ctrl.BenchmarkProblem(r.Context(), id, iterations, nil)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	mean, sd, unit := format.ScaleNanos(summary.Mean, summary.StdDev)
	resp := benchmarkResponse{
		ID:         id,
		Answer:     answer,
		Iterations: summary.N,
		MeanNanos:  summary.Mean,
		Mean:       mean,
		Unit:       unit,
	}
	if summary.HasStdDev {
		sdNanos := summary.StdDev
		resp.StdDevNanos, resp.StdDev = &sdNanos, &sd
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancel(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, epochResponse{Epoch: s.ctrl.Stop()})
}

func (s *Server) handleGetSelection(w http.ResponseWriter, _ *http.Request) {
	id, ok := s.ctrl.Selected()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no problem selected")
		return
	}
	s.writeJSON(w, http.StatusOK, selectionResponse{ID: id, Epoch: s.ctrl.Snapshot().Epoch})
}

func (s *Server) handlePutSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	epoch, err := s.ctrl.Select(r.Context(), req.ID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, selectionResponse{ID: req.ID, Epoch: epoch})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.problemID(w, r)
	if !ok {
		return
	}
	limit, err := parseIntQuery(r, "limit", defaultHistoryLimit)
	if err != nil || limit <= 0 {
		s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	limit = min(limit, maxHistoryLimit)

	records, err := s.ctrl.History(r.Context(), id, limit)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if records == nil {
		records = []store.BenchmarkRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

// problemID parses the {id} path parameter, writing a 400 on failure.
func (s *Server) problemID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "problem id must be a positive integer")
		return 0, false
	}
	return id, true
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		initErr  apperrors.InitializationError
		compErr  apperrors.ComputationError
		protErr  apperrors.ProtocolError
		validErr apperrors.ValidationError
	)
	switch {
	case apperrors.IsCancelled(err):
		return http.StatusConflict
	case errors.As(err, &compErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &protErr), errors.As(err, &validErr):
		return http.StatusBadRequest
	case errors.As(err, &initErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, orchestration.ErrNoSelection):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", err, logging.Int("status", status))
	}
	s.writeError(w, status, err.Error())
}

// writeJSON writes v as a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultVal int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}
