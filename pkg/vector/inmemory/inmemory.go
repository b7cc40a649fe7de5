// Package inmemory provides an exact, brute force vector.Driver held in process
// memory. It is used for tests and for small local indexes.
package inmemory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/vector"
)

// Config holds configuration for the in-memory driver.
type Config struct {
	// Dimensions is the vector dimension every stored chunk must have.
	Dimensions uint

	// Metric is the distance metric searches must use. Defaults to vector.MetricL2.
	Metric vector.Metric

	// EmbeddingModel, when set, rejects chunks embedded with any other model.
	EmbeddingModel string
}

// Driver implements vector.Driver over a map of documents to chunks.
type Driver struct {
	mu     sync.RWMutex
	docs   map[string][]vector.EmbeddedChunk
	order  []string
	dims   uint
	metric vector.Metric
	model  string
	logger *zap.Logger
}

// NewDriver creates an empty in-memory index.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.Dimensions == 0 {
		return nil, &vector.ConfigurationError{Field: "dimensions", Reason: "must be greater than 0"}
	}

	metric := c.Metric
	if metric == "" {
		metric = vector.MetricL2
	}
	if !metric.Valid() {
		return nil, &vector.ConfigurationError{Field: "metric", Reason: fmt.Sprintf("unsupported metric %q", metric)}
	}

	return &Driver{
		docs:   make(map[string][]vector.EmbeddedChunk),
		dims:   c.Dimensions,
		metric: metric,
		model:  c.EmbeddingModel,
		logger: logger,
	}, nil
}

// Upsert replaces the chunks of every document in the batch.
func (d *Driver) Upsert(ctx context.Context, chunks []vector.EmbeddedChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, vector.ContextError(ctx, err)
	}
	if err := vector.CheckBatch(d.dims, d.model, chunks); err != nil {
		return 0, err
	}

	grouped := make(map[string][]vector.EmbeddedChunk)
	for _, c := range chunks {
		c.Embedding = slices.Clone(c.Embedding)
		grouped[c.DocumentID] = append(grouped[c.DocumentID], c)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range vector.DocumentIDs(chunks) {
		if _, ok := d.docs[id]; !ok {
			d.order = append(d.order, id)
		}
		d.docs[id] = grouped[id]
	}

	d.logger.Debug("upserted chunks into memory index",
		zap.Int("count", len(chunks)),
	)

	return len(chunks), nil
}

// Search scores every stored chunk and returns the best k.
func (d *Driver) Search(ctx context.Context, query []float32, k int, metric vector.Metric) ([]vector.ScoredCandidate, error) {
	if err := vector.CheckSearch(d.metric, d.dims, query, k, metric); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, vector.ContextError(ctx, err)
	}

	d.mu.RLock()
	candidates := make([]vector.ScoredCandidate, 0, len(d.order))
	for _, id := range d.order {
		for _, c := range d.docs[id] {
			candidates = append(candidates, vector.ScoredCandidate{
				Chunk:    c.Chunk,
				RawScore: metric.Score(query, c.Embedding),
				Metric:   metric,
			})
		}
	}
	d.mu.RUnlock()

	vector.SortCandidates(candidates)
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	return candidates, nil
}

// Delete removes every chunk of documentID.
func (d *Driver) Delete(ctx context.Context, documentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, vector.ContextError(ctx, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	removed := len(d.docs[documentID])
	if removed == 0 {
		return 0, nil
	}

	delete(d.docs, documentID)
	d.order = slices.DeleteFunc(d.order, func(id string) bool { return id == documentID })

	return removed, nil
}

// Count returns the number of chunks held by the index.
func (d *Driver) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for _, chunks := range d.docs {
		n += len(chunks)
	}
	return n
}

func (d *Driver) Metric() vector.Metric { return d.metric }

func (d *Driver) Dimensions() uint { return d.dims }

func (d *Driver) Close() error { return nil }
