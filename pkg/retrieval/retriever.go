// Package retrieval ties the embedder, vector store, normalizer, classifier and
// relevance filter together into the query path, and the chunker, embedder and
// vector store into the indexing path.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/category"
	"github.com/papercomputeco/ragline/pkg/embeddings"
	"github.com/papercomputeco/ragline/pkg/relevance"
	"github.com/papercomputeco/ragline/pkg/similarity"
	"github.com/papercomputeco/ragline/pkg/vector"
)

const (
	// DefaultK is the number of candidates fetched from the vector store.
	DefaultK = 10

	// DefaultThreshold is the minimum similarity a candidate needs to pass
	// the threshold stage.
	DefaultThreshold = 0.3

	// DefaultMaxResults bounds the final candidate set.
	DefaultMaxResults = 5
)

// Classifier labels queries and stored documents.
type Classifier interface {
	ClassifyQuery(text string) category.Category
	ClassifyDocument(text string) category.Category
}

// Options are the per query knobs of Retrieve.
type Options struct {
	// K is the number of nearest neighbors fetched before filtering.
	K int `json:"k"`

	// Threshold is the similarity in [0, 1] candidates must reach.
	Threshold float64 `json:"threshold"`

	// MaxResults bounds the returned candidates.
	MaxResults int `json:"max_results"`
}

// DefaultOptions returns the reference retrieval settings.
func DefaultOptions() Options {
	return Options{
		K:          DefaultK,
		Threshold:  DefaultThreshold,
		MaxResults: DefaultMaxResults,
	}
}

func (o Options) validate() error {
	if o.K < 1 {
		return stageError(StageSearch, &vector.ConfigurationError{
			Field: "k", Reason: fmt.Sprintf("must be at least 1, got %d", o.K),
		})
	}

	if o.MaxResults < 1 {
		return stageError(StageFilter, &vector.ConfigurationError{
			Field: "max_results", Reason: fmt.Sprintf("must be at least 1, got %d", o.MaxResults),
		})
	}

	if math.IsNaN(o.Threshold) || o.Threshold < 0 || o.Threshold > 1 {
		return stageError(StageFilter, &vector.ConfigurationError{
			Field: "threshold", Reason: fmt.Sprintf("must be within [0, 1], got %g", o.Threshold),
		})
	}

	return nil
}

// Result is the outcome of one Retrieve call. An empty Candidates slice is a
// valid "no relevant context" outcome, not an error.
type Result struct {
	Query      string                           `json:"query"`
	Category   category.Category                `json:"category"`
	Candidates []similarity.NormalizedCandidate `json:"candidates"`
	Stats      relevance.Stats                  `json:"stats"`
}

// Config wires the collaborators of a Retriever.
type Config struct {
	// Models resolves EmbeddingModel into a loaded embedder.
	Models *embeddings.ModelCache

	// EmbeddingModel is the model queries are embedded with. It must match
	// the model the index was built with.
	EmbeddingModel string

	// Driver is the vector store searched.
	Driver vector.Driver

	// Metric is the metric searches are issued with. Defaults to the
	// driver's index metric.
	Metric vector.Metric

	// Normalizer converts raw scores. Defaults to a Normalizer with default cutoff.
	Normalizer *similarity.Normalizer

	// Classifier labels the query. Defaults to the built-in keyword classifier.
	Classifier Classifier

	// Filter runs the relevance stages. Defaults to a Filter over Classifier.
	Filter *relevance.Filter

	// Timeout bounds each embedding and vector store call. Defaults to DefaultTimeout.
	Timeout time.Duration

	// RetryDelay is waited before retrying a timed out call. Defaults to DefaultRetryDelay.
	RetryDelay time.Duration

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Retriever answers queries with a bounded, relevance ranked chunk set. It
// holds no per query state and is safe for concurrent use.
type Retriever struct {
	models     *embeddings.ModelCache
	model      string
	driver     vector.Driver
	metric     vector.Metric
	normalizer *similarity.Normalizer
	classifier Classifier
	filter     *relevance.Filter
	policy     callPolicy
	logger     *zap.Logger
}

// NewRetriever creates a Retriever from c.
func NewRetriever(c *Config) (*Retriever, error) {
	if c.Models == nil {
		return nil, errors.New("retriever requires a model cache")
	}
	if c.Driver == nil {
		return nil, errors.New("retriever requires a vector driver")
	}
	if c.EmbeddingModel == "" {
		return nil, &vector.ConfigurationError{Field: "embedding.model", Reason: "must not be empty"}
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	metric := c.Metric
	if metric == "" {
		metric = c.Driver.Metric()
	}
	if !metric.Valid() {
		return nil, &vector.ConfigurationError{Field: "metric", Reason: fmt.Sprintf("unsupported metric %q", metric)}
	}

	normalizer := c.Normalizer
	if normalizer == nil {
		normalizer = similarity.NewNormalizer(logger)
	}

	classifier := c.Classifier
	if classifier == nil {
		classifier = category.NewClassifier(category.DefaultConfig(), logger)
	}

	filter := c.Filter
	if filter == nil {
		filter = relevance.NewFilter(relevance.Config{}, classifier, logger)
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	retryDelay := c.RetryDelay
	if retryDelay == 0 {
		retryDelay = DefaultRetryDelay
	}

	return &Retriever{
		models:     c.Models,
		model:      c.EmbeddingModel,
		driver:     c.Driver,
		metric:     metric,
		normalizer: normalizer,
		classifier: classifier,
		filter:     filter,
		policy: callPolicy{
			timeout:    timeout,
			retryDelay: retryDelay,
			logger:     logger,
		},
		logger: logger,
	}, nil
}

// Retrieve embeds query, searches opts.K candidates, normalizes their scores,
// classifies the query and runs the relevance filter. Every failure is a
// *RetrievalError naming its stage.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) (*Result, error) {
	start := time.Now()

	if err := opts.validate(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		return nil, stageError(StageEmbed, &vector.ConfigurationError{Field: "query", Reason: "must not be empty"})
	}

	embedder, err := r.models.GetOrLoad(ctx, r.model)
	if err != nil {
		return nil, stageError(StageEmbed, err)
	}

	queryVec, err := bounded(ctx, r.policy, "embed", func(ctx context.Context) ([]float32, error) {
		return embedder.EmbedOne(ctx, query)
	})
	if err != nil {
		return nil, stageError(StageEmbed, err)
	}

	candidates, err := bounded(ctx, r.policy, "search", func(ctx context.Context) ([]vector.ScoredCandidate, error) {
		return r.driver.Search(ctx, queryVec, opts.K, r.metric)
	})
	if err != nil {
		return nil, stageError(StageSearch, err)
	}

	for _, c := range candidates {
		if c.Metric != r.metric {
			return nil, stageError(StageNormalize, &vector.MetricMismatchError{Index: c.Metric, Query: r.metric})
		}
	}
	normalized := r.normalizer.NormalizeAll(candidates)

	queryCategory := r.classifier.ClassifyQuery(query)

	if err := ctx.Err(); err != nil {
		return nil, stageError(StageFilter, err)
	}
	out, stats := r.filter.Explain(normalized, queryCategory, opts.Threshold, opts.MaxResults)

	r.logger.Debug("retrieved",
		zap.String("category", string(queryCategory)),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(out)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Result{
		Query:      query,
		Category:   queryCategory,
		Candidates: out,
		Stats:      stats,
	}, nil
}

// Metric is the metric searches are issued with.
func (r *Retriever) Metric() vector.Metric { return r.metric }

// EmbeddingModel is the model queries are embedded with.
func (r *Retriever) EmbeddingModel() string { return r.model }
