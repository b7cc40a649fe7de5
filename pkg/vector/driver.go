// Package vector provides the vector store adapter interface along with the
// chunk and candidate types that flow between indexing and retrieval.
package vector

import "context"

// Chunk is a contiguous slice of a source document.
type Chunk struct {
	// DocumentID is the stable identifier of the parent document.
	DocumentID string `json:"document_id"`

	// Title is the human readable title shared by all chunks of a document.
	Title string `json:"title"`

	// Content is the chunk text.
	Content string `json:"content"`

	// ChunkIndex is the position of the chunk within its document.
	ChunkIndex int `json:"chunk_index"`

	// TotalChunks is the number of chunks the parent document was split into.
	TotalChunks int `json:"total_chunks"`
}

// EmbeddedChunk is a Chunk plus the vector produced for its content.
type EmbeddedChunk struct {
	Chunk

	// Embedding is the fixed length vector for Content.
	Embedding []float32

	// EmbeddingModel is the name of the model that produced Embedding.
	EmbeddingModel string
}

// ScoredCandidate is a single nearest neighbor hit. RawScore carries the
// metric's native value: Euclidean distance for MetricL2, cosine similarity
// in [-1, 1] for MetricCosine and the dot product for MetricInnerProduct.
type ScoredCandidate struct {
	Chunk    Chunk   `json:"chunk"`
	RawScore float64 `json:"raw_score"`
	Metric   Metric  `json:"metric"`
}

// Driver handles storage and nearest neighbor search of embedded chunks.
type Driver interface {
	// Upsert stores the batch atomically. Existing chunks of every document
	// present in the batch are replaced. Returns the number of chunks stored.
	Upsert(ctx context.Context, chunks []EmbeddedChunk) (int, error)

	// Search returns up to k candidates ordered in the metric's native
	// "better" direction. An empty index yields an empty slice, not an error.
	Search(ctx context.Context, query []float32, k int, metric Metric) ([]ScoredCandidate, error)

	// Delete removes every chunk of the document and returns how many were removed.
	Delete(ctx context.Context, documentID string) (int, error)

	// Metric is the distance metric the index was built with.
	Metric() Metric

	// Dimensions is the configured vector dimension of the index.
	Dimensions() uint

	// Close releases any resources held by the driver.
	Close() error
}
