package testutils

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/ragline/pkg/vector"
)

// MockDriver is a test vector driver
type MockDriver struct {
	// Results is returned by Search, truncated to k.
	Results []vector.ScoredCandidate

	// SearchErr is returned by Search when set.
	SearchErr error

	// FailSearches makes the first N searches return SearchErr.
	FailSearches int32

	// UpsertErr is returned by Upsert when set; nothing is stored.
	UpsertErr error

	// DeleteErr is returned by Delete when set.
	DeleteErr error

	// FailDeletes makes the first N deletes return DeleteErr.
	FailDeletes int32

	// Delay is waited out by Search, honoring context cancellation.
	Delay time.Duration

	// IndexMetric is returned by Metric. Defaults to vector.MetricL2.
	IndexMetric vector.Metric

	// Dims is returned by Dimensions. Defaults to 3.
	Dims uint

	searches atomic.Int32
	deletes  atomic.Int32

	mu       sync.Mutex
	upserted []vector.EmbeddedChunk
	deleted  []string
}

func NewMockDriver() *MockDriver {
	return &MockDriver{}
}

func (m *MockDriver) Upsert(_ context.Context, chunks []vector.EmbeddedChunk) (int, error) {
	if m.UpsertErr != nil {
		return 0, m.UpsertErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, chunks...)
	return len(chunks), nil
}

func (m *MockDriver) Search(ctx context.Context, _ []float32, k int, metric vector.Metric) ([]vector.ScoredCandidate, error) {
	n := m.searches.Add(1)

	if metric != m.Metric() {
		return nil, &vector.MetricMismatchError{Index: m.Metric(), Query: metric}
	}

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, vector.ContextError(ctx, ctx.Err())
		}
	}

	if m.SearchErr != nil && (m.FailSearches == 0 || n <= m.FailSearches) {
		return nil, m.SearchErr
	}

	if len(m.Results) < k {
		return m.Results, nil
	}
	return m.Results[:k], nil
}

func (m *MockDriver) Delete(_ context.Context, documentID string) (int, error) {
	n := m.deletes.Add(1)
	if m.DeleteErr != nil && (m.FailDeletes == 0 || n <= m.FailDeletes) {
		return 0, m.DeleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleted = append(m.deleted, documentID)
	removed := 0
	kept := m.upserted[:0]
	for _, c := range m.upserted {
		if c.DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	m.upserted = kept
	return removed, nil
}

func (m *MockDriver) Metric() vector.Metric {
	if m.IndexMetric == "" {
		return vector.MetricL2
	}
	return m.IndexMetric
}

func (m *MockDriver) Dimensions() uint {
	if m.Dims == 0 {
		return 3
	}
	return m.Dims
}

func (m *MockDriver) Close() error {
	return nil
}

// Searches returns how many times Search was called.
func (m *MockDriver) Searches() int {
	return int(m.searches.Load())
}

// Upserted returns a copy of the stored chunks.
func (m *MockDriver) Upserted() []vector.EmbeddedChunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]vector.EmbeddedChunk(nil), m.upserted...)
}

// Deleted returns the document ids passed to Delete.
func (m *MockDriver) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
