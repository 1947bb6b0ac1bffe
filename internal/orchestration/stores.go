//go:generate mockgen -source=stores.go -destination=mocks/mock_stores.go -package=mocks

package orchestration

import (
	"context"

	"github.com/agbru/peuler/internal/store"
)

// SelectionStore persists the current problem selection.
// LoadSelection returns store.ErrNotFound when nothing was saved yet.
type SelectionStore interface {
	LoadSelection(ctx context.Context) (int, error)
	SaveSelection(ctx context.Context, problemID int) error
}

// HistoryStore records finished benchmark runs.
type HistoryStore interface {
	SaveBenchmark(ctx context.Context, rec *store.BenchmarkRecord) error
	ListBenchmarks(ctx context.Context, problemID, limit int) ([]store.BenchmarkRecord, error)
}
