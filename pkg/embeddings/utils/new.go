// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/embeddings"
	"github.com/papercomputeco/ragline/pkg/embeddings/hashing"
	"github.com/papercomputeco/ragline/pkg/embeddings/ollama"
	"github.com/papercomputeco/ragline/pkg/vector"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimensions   uint

	// CacheSize enables an LRU cache of embedded texts when greater than 0.
	CacheSize int

	Logger *zap.Logger
}

// NewEmbedder resolves the configured provider and model into a ready
// Embedder. An empty model falls back to the provider default with a warning.
func NewEmbedder(ctx context.Context, o *NewEmbedderOpts) (embeddings.Embedder, error) {
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		e   embeddings.Embedder
		err error
	)

	switch o.ProviderType {
	case "ollama":
		model := o.Model
		if model == "" {
			model = ollama.DefaultEmbeddingModel
			logger.Warn("no embedding model configured, using provider default",
				zap.String("provider", o.ProviderType),
				zap.String("model", model),
			)
		}
		e, err = ollama.Load(ctx, ollama.EmbedderConfig{
			BaseURL:    o.TargetURL,
			Model:      model,
			Dimensions: o.Dimensions,
		})

	case "hashing":
		switch o.Model {
		case hashing.ModelName:
		case "":
			logger.Warn("no embedding model configured, using provider default",
				zap.String("provider", o.ProviderType),
				zap.String("model", hashing.ModelName),
			)
		default:
			return nil, &embeddings.ModelLoadError{
				Model: o.Model,
				Err:   fmt.Errorf("hashing provider only serves %q", hashing.ModelName),
			}
		}
		e, err = hashing.NewEmbedder(o.Dimensions)
		if err != nil {
			err = &embeddings.ModelLoadError{Model: hashing.ModelName, Err: err}
		}

	default:
		return nil, &vector.ConfigurationError{
			Field:  "embedding.provider",
			Reason: fmt.Sprintf("unsupported embedding provider %q (available: ollama, hashing)", o.ProviderType),
		}
	}
	if err != nil {
		return nil, err
	}

	if o.CacheSize > 0 {
		cached, err := embeddings.NewCachedEmbedder(e, o.CacheSize)
		if err != nil {
			return nil, err
		}
		return cached, nil
	}
	return e, nil
}

// NewLoader returns a ModelCache loader that builds embedders from o for
// whichever model name is requested.
func NewLoader(o NewEmbedderOpts) embeddings.Loader {
	return func(ctx context.Context, model string) (embeddings.Embedder, error) {
		opts := o
		opts.Model = model
		return NewEmbedder(ctx, &opts)
	}
}
