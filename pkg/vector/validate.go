package vector

import "fmt"

// CheckSearch validates a search request against the index settings.
func CheckSearch(indexMetric Metric, indexDims uint, query []float32, k int, metric Metric) error {
	if k < 1 {
		return &ConfigurationError{Field: "k", Reason: fmt.Sprintf("must be at least 1, got %d", k)}
	}

	if metric != indexMetric {
		return &MetricMismatchError{Index: indexMetric, Query: metric}
	}

	if uint(len(query)) != indexDims {
		return &DimensionMismatchError{Expected: indexDims, Got: uint(len(query))}
	}

	return nil
}

// CheckBatch validates every chunk of an upsert batch before anything is
// written. An empty model disables the embedding model check.
func CheckBatch(indexDims uint, model string, chunks []EmbeddedChunk) error {
	for _, c := range chunks {
		if uint(len(c.Embedding)) != indexDims {
			return &DimensionMismatchError{Expected: indexDims, Got: uint(len(c.Embedding))}
		}

		if model != "" && c.EmbeddingModel != model {
			return fmt.Errorf("%w: index holds %q vectors, chunk %s/%d was embedded with %q",
				ErrModelMismatch, model, c.DocumentID, c.ChunkIndex, c.EmbeddingModel)
		}

		if c.DocumentID == "" {
			return fmt.Errorf("%w: empty document id", ErrInvalidChunk)
		}

		if c.ChunkIndex < 0 || c.ChunkIndex >= c.TotalChunks {
			return fmt.Errorf("%w: %s chunk index %d outside [0, %d)",
				ErrInvalidChunk, c.DocumentID, c.ChunkIndex, c.TotalChunks)
		}
	}

	return nil
}

// DocumentIDs returns the distinct document ids of chunks in first-seen order.
func DocumentIDs(chunks []EmbeddedChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if _, ok := seen[c.DocumentID]; ok {
			continue
		}
		seen[c.DocumentID] = struct{}{}
		ids = append(ids, c.DocumentID)
	}
	return ids
}
