// Package stack wires a resolved config into the components the ragline
// commands run: vector driver, embedding models, retriever, indexer, event
// publisher and answer generator.
package stack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/category"
	"github.com/papercomputeco/ragline/pkg/chunker"
	"github.com/papercomputeco/ragline/pkg/config"
	"github.com/papercomputeco/ragline/pkg/dotdir"
	"github.com/papercomputeco/ragline/pkg/embeddings"
	"github.com/papercomputeco/ragline/pkg/embeddings/hashing"
	embeddingutils "github.com/papercomputeco/ragline/pkg/embeddings/utils"
	"github.com/papercomputeco/ragline/pkg/eventstream"
	"github.com/papercomputeco/ragline/pkg/eventstream/kafka"
	"github.com/papercomputeco/ragline/pkg/eventstream/nop"
	"github.com/papercomputeco/ragline/pkg/generation"
	"github.com/papercomputeco/ragline/pkg/generation/ollama"
	"github.com/papercomputeco/ragline/pkg/logger"
	"github.com/papercomputeco/ragline/pkg/relevance"
	"github.com/papercomputeco/ragline/pkg/retrieval"
	"github.com/papercomputeco/ragline/pkg/similarity"
	"github.com/papercomputeco/ragline/pkg/vector"
	vectorutils "github.com/papercomputeco/ragline/pkg/vector/utils"
)

// Stack holds the wired components. Close releases them.
type Stack struct {
	Driver    vector.Driver
	Models    *embeddings.ModelCache
	Retriever *retrieval.Retriever
	Indexer   *retrieval.Indexer
	Publisher eventstream.Publisher
	Generator generation.Generator

	// Options are the configured retrieval defaults.
	Options retrieval.Options

	logger *zap.Logger
}

// Opts selects what Build wires.
type Opts struct {
	// ConfigDir overrides the .ragline/ directory used for the default sqlite index.
	ConfigDir string

	// WithGenerator builds the answer generator.
	WithGenerator bool

	Logger *zap.Logger
}

// EmbeddingModel is the model name vectors are recorded with. The hashing
// provider serves a single model regardless of the configured name.
func EmbeddingModel(cfg *config.Config) string {
	if cfg.Embedding.Provider == "hashing" {
		return hashing.ModelName
	}
	return cfg.Embedding.Model
}

// RetrievalOptions returns the configured per query settings.
func RetrievalOptions(cfg *config.Config) retrieval.Options {
	return retrieval.Options{
		K:          cfg.Retrieval.K,
		Threshold:  cfg.Retrieval.SimilarityThreshold,
		MaxResults: cfg.Retrieval.MaxResults,
	}
}

// Build wires cfg into a Stack.
func Build(ctx context.Context, cfg *config.Config, o Opts) (*Stack, error) {
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout, err := cfg.Retrieval.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	model := EmbeddingModel(cfg)
	if model != cfg.Embedding.Model {
		logger.Debug("embedding provider serves a fixed model",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("configured", cfg.Embedding.Model),
			zap.String("model", model),
		)
	}

	metric, err := vector.ParseMetric(cfg.VectorStore.Metric)
	if err != nil {
		return nil, err
	}

	target := cfg.VectorStore.Target
	if target == "" && isSQLite(cfg.VectorStore.Provider) {
		target, err = dotdir.NewManager().IndexPath(o.ConfigDir)
		if err != nil {
			return nil, err
		}
	}

	s := &Stack{
		Options: RetrievalOptions(cfg),
		logger:  logger,
	}

	s.Driver, err = vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType:   cfg.VectorStore.Provider,
		Target:         target,
		Collection:     cfg.VectorStore.Collection,
		APIKey:         cfg.VectorStore.APIKey,
		Metric:         metric,
		Dimensions:     cfg.Embedding.Dimensions,
		EmbeddingModel: model,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	s.Models = embeddings.NewModelCache(embeddingutils.NewLoader(embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Dimensions:   cfg.Embedding.Dimensions,
		CacheSize:    cfg.Embedding.QueryCacheSize,
		Logger:       logger,
	}), logger)

	classifier := category.NewClassifier(category.Config{
		CooccurrenceBonus: cfg.Classifier.CooccurrenceBonus,
		LeadBonus:         cfg.Classifier.LeadBonus,
		LeadChars:         cfg.Classifier.LeadChars,
		ExactWordWeight:   cfg.Classifier.ExactWordWeight,
	}, logger)

	s.Retriever, err = retrieval.NewRetriever(&retrieval.Config{
		Models:         s.Models,
		EmbeddingModel: model,
		Driver:         s.Driver,
		Metric:         metric,
		Normalizer:     similarity.NewNormalizer(logger, similarity.WithInnerProductCutoff(cfg.Retrieval.InnerProductCutoff)),
		Classifier:     classifier,
		Filter: relevance.NewFilter(relevance.Config{
			MinThresholdResults: cfg.Retrieval.MinThresholdResults,
			MinCategoryMatches:  cfg.Retrieval.MinCategoryMatches,
		}, classifier, logger),
		Timeout: timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, errors.Join(err, s.Close())
	}

	s.Publisher, err = newPublisher(cfg, logger)
	if err != nil {
		return nil, errors.Join(err, s.Close())
	}

	ch, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, errors.Join(err, s.Close())
	}

	s.Indexer, err = retrieval.NewIndexer(&retrieval.IndexerConfig{
		Chunker:        ch,
		Models:         s.Models,
		EmbeddingModel: model,
		Driver:         s.Driver,
		Publisher:      s.Publisher,
		Source: eventstream.EventSource{
			Service:  "ragline",
			Provider: cfg.VectorStore.Provider,
			Metric:   string(metric),
		},
		Timeout: timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, errors.Join(err, s.Close())
	}

	if o.WithGenerator {
		s.Generator, err = newGenerator(cfg, logger)
		if err != nil {
			return nil, errors.Join(err, s.Close())
		}
	}

	return s, nil
}

func isSQLite(provider string) bool {
	return provider == "" || provider == "sqlite" || provider == "sqlitevec"
}

func newPublisher(cfg *config.Config, logger *zap.Logger) (eventstream.Publisher, error) {
	var brokers []string
	for _, b := range strings.Split(cfg.Events.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	if len(brokers) == 0 {
		return nop.NewPublisher(), nil
	}

	return kafka.NewPublisher(kafka.Config{
		Brokers: brokers,
		Topic:   cfg.Events.Topic,
	}, logger)
}

func newGenerator(cfg *config.Config, logger *zap.Logger) (generation.Generator, error) {
	switch cfg.Generation.Provider {
	case "ollama", "":
		return ollama.NewGenerator(ollama.Config{
			BaseURL: cfg.Generation.Target,
			Model:   cfg.Generation.Model,
		}, logger), nil
	default:
		return nil, &vector.ConfigurationError{
			Field:  "generation.provider",
			Reason: fmt.Sprintf("unsupported generation provider %q (available: ollama)", cfg.Generation.Provider),
		}
	}
}

// Close releases the publisher, the loaded embedding models and the vector store.
func (s *Stack) Close() error {
	var errs []error

	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing event publisher: %w", err))
		}
	}
	if s.Models != nil {
		if err := s.Models.Clear(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Driver != nil {
		if err := s.Driver.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing vector store: %w", err))
		}
	}

	return errors.Join(errs...)
}

// NewLogger builds the command logger. Console output goes to w so commands
// printing results on stdout can keep logs on stderr.
func NewLogger(debug bool, cfg *config.Config, w io.Writer) *zap.Logger {
	return logger.New(
		logger.WithDebug(debug),
		logger.WithWriters(w),
		logger.WithFile(cfg.Log.File, cfg.Log.MaxSizeMB),
	)
}
