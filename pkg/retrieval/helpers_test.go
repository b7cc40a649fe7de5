package retrieval_test

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/embeddings"
	"github.com/papercomputeco/ragline/pkg/vector"
)

// staticLoader serves e for its own model name only.
func staticLoader(e embeddings.Embedder) embeddings.Loader {
	return func(_ context.Context, model string) (embeddings.Embedder, error) {
		if model != e.Model() {
			return nil, fmt.Errorf("unknown model %q", model)
		}
		return e, nil
	}
}

func modelCache(e embeddings.Embedder) *embeddings.ModelCache {
	return embeddings.NewModelCache(staticLoader(e), zap.NewNop())
}

func l2Candidate(doc, title, content string, raw float64) vector.ScoredCandidate {
	return vector.ScoredCandidate{
		Chunk: vector.Chunk{
			DocumentID:  doc,
			Title:       title,
			Content:     content,
			ChunkIndex:  0,
			TotalChunks: 1,
		},
		RawScore: raw,
		Metric:   vector.MetricL2,
	}
}
