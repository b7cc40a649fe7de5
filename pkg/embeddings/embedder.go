// Package embeddings defines the text embedding interface and the model cache
// shared by indexing and retrieval.
package embeddings

import "context"

// Embedder maps text onto fixed length vectors. Implementations must be
// deterministic for a fixed model: the same text always yields the same vector.
type Embedder interface {
	// Embed converts each text into a vector, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedOne converts a single text, typically a query, into a vector.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// Model is the name of the model producing the vectors. It is recorded
	// alongside every stored vector.
	Model() string

	// Dimensions is the length of every produced vector.
	Dimensions() uint

	// Close releases any resources held by the embedder.
	Close() error
}
