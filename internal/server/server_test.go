package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/peuler/internal/dispatch"
	apperrors "github.com/agbru/peuler/internal/errors"
	"github.com/agbru/peuler/internal/euler"
	"github.com/agbru/peuler/internal/orchestration"
	"github.com/agbru/peuler/internal/store"
	"github.com/agbru/peuler/internal/worker"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	engine := euler.New(
		euler.NewProblem(1, "Multiples of 3 or 5", func() string { return "233168" }),
		euler.NewProblem(2, "Even Fibonacci numbers", func() string { return "4613732" }),
		euler.NewProblem(7, "Broken", func() string { panic("boom") }),
	)
	d := dispatch.New(worker.NewUnit(worker.InProcessSpawner{Engine: engine}))
	t.Cleanup(func() { _ = d.Close() })

	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctrl := orchestration.NewController(d,
		orchestration.WithSelectionStore(s),
		orchestration.WithHistoryStore(s),
	)
	return NewServer(":0", ctrl, WithIterations(3), WithRegistry(prometheus.NewRegistry()))
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	resp := decode[healthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, uint64(0), resp.Epoch)
}

func TestListProblems(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/v1/problems", "")

	require.Equal(t, http.StatusOK, rec.Code)
	problems := decode[[]problemResponse](t, rec)
	require.Len(t, problems, 3)
	assert.Equal(t, problemResponse{ID: 1, Title: "Multiples of 3 or 5"}, problems[0])
}

func TestSolve(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		status int
		answer string
	}{
		{"known problem", "/v1/problems/1/solution", http.StatusOK, "233168"},
		{"panicking problem", "/v1/problems/7/solution", http.StatusUnprocessableEntity, ""},
		{"unknown problem", "/v1/problems/42/solution", http.StatusUnprocessableEntity, ""},
		{"malformed id", "/v1/problems/abc/solution", http.StatusBadRequest, ""},
		{"non-positive id", "/v1/problems/0/solution", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, tt.path, "")
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.answer != "" {
				assert.Equal(t, tt.answer, decode[solutionResponse](t, rec).Answer)
			} else {
				assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
			}
		})
	}
}

func TestBenchmark(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/v1/problems/2/benchmark?iterations=4", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[benchmarkResponse](t, rec)
	assert.Equal(t, 2, resp.ID)
	assert.Equal(t, "4613732", resp.Answer)
	assert.Equal(t, 4, resp.Iterations)
	assert.Greater(t, resp.MeanNanos, 0.0)
	require.NotNil(t, resp.StdDevNanos)
	assert.GreaterOrEqual(t, *resp.StdDevNanos, 0.0)
	assert.Contains(t, []string{"ns", "µs", "ms", "s"}, resp.Unit)

	// The finished run is recorded in the history.
	rec = do(t, srv, http.MethodGet, "/v1/history/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	records := decode[[]store.BenchmarkRecord](t, rec)
	require.Len(t, records, 1)
	assert.Equal(t, 4, records[0].Iterations)
	assert.Equal(t, "4613732", records[0].Answer)
}

func TestBenchmark_DefaultAndInvalidIterations(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/v1/problems/1/benchmark", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[benchmarkResponse](t, rec).Iterations)

	for _, q := range []string{"0", "-1", "x", "1000001"} {
		rec = do(t, srv, http.MethodPost, "/v1/problems/1/benchmark?iterations="+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "iterations=%s", q)
	}

	rec = do(t, srv, http.MethodPost, "/v1/problems/7/benchmark", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSelectionRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/v1/selection", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPut, "/v1/selection", `{"id": 2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	put := decode[selectionResponse](t, rec)
	assert.Equal(t, 2, put.ID)
	assert.Equal(t, uint64(1), put.Epoch)

	rec = do(t, srv, http.MethodGet, "/v1/selection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, selectionResponse{ID: 2, Epoch: 1}, decode[selectionResponse](t, rec))

	rec = do(t, srv, http.MethodPut, "/v1/selection", `{"id": -3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPut, "/v1/selection", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelAdvancesEpoch(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/v1/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(1), decode[epochResponse](t, rec).Epoch)

	rec = do(t, srv, http.MethodPost, "/v1/cancel", "")
	assert.Equal(t, uint64(2), decode[epochResponse](t, rec).Epoch)

	rec = do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, uint64(2), decode[healthResponse](t, rec).Epoch)
}

func TestHistory_Limits(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/v1/history/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/v1/history/1?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"cancelled", apperrors.CancelledError{Epoch: 1}, http.StatusConflict},
		{"computation", apperrors.ComputationError{JobID: "j", Message: "boom"}, http.StatusUnprocessableEntity},
		{"protocol", apperrors.ProtocolError{Kind: "frame", Message: "bad"}, http.StatusBadRequest},
		{"validation", apperrors.ValidationError{Field: "problem", Message: "bad"}, http.StatusBadRequest},
		{"initialization", apperrors.InitializationError{Cause: assert.AnError}, http.StatusServiceUnavailable},
		{"context", context.Canceled, http.StatusConflict},
		{"no selection", orchestration.ErrNoSelection, http.StatusNotFound},
		{"other", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodGet, "/v1/problems", "")

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "peuler_http_requests_total")
	assert.Contains(t, body, `path="/v1/problems"`)
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/problems", http.NoBody)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	srv := newTestServer(t)
	srv.addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
