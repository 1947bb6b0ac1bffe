package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSelectionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LoadSelection(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveSelection(ctx, 7))
	require.NoError(t, s.SaveSelection(ctx, 14))

	id, err := s.LoadSelection(ctx)
	require.NoError(t, err)
	assert.Equal(t, 14, id)
}

func TestBenchmarkHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sd := 12.5
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	older := &BenchmarkRecord{ProblemID: 1, Answer: "233168", Iterations: 3, MeanNanos: 100, StdDevNanos: &sd, CreatedAt: base}
	newer := &BenchmarkRecord{ProblemID: 1, Answer: "233168", Iterations: 1, MeanNanos: 90, CreatedAt: base.Add(time.Minute)}
	other := &BenchmarkRecord{ProblemID: 2, Answer: "4613732", Iterations: 5, MeanNanos: 50}

	for _, rec := range []*BenchmarkRecord{older, newer, other} {
		require.NoError(t, s.SaveBenchmark(ctx, rec))
		assert.NotEmpty(t, rec.ID)
		assert.False(t, rec.CreatedAt.IsZero())
	}

	got, err := s.ListBenchmarks(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Nil(t, got[0].StdDevNanos)
	require.NotNil(t, got[1].StdDevNanos)
	assert.InDelta(t, 12.5, *got[1].StdDevNanos, 1e-9)
	assert.Equal(t, 3, got[1].Iterations)

	limited, err := s.ListBenchmarks(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := s.ListBenchmarks(ctx, 99, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNewSQLiteStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveSelection(context.Background(), 3))

	// Reopen to check the value survived.
	require.NoError(t, s.Close())
	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()
	id, err := s2.LoadSelection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, id)
}
