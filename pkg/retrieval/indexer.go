package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/chunker"
	"github.com/papercomputeco/ragline/pkg/embeddings"
	"github.com/papercomputeco/ragline/pkg/eventstream"
	"github.com/papercomputeco/ragline/pkg/eventstream/nop"
	"github.com/papercomputeco/ragline/pkg/vector"
)

// IndexerConfig wires the collaborators of an Indexer.
type IndexerConfig struct {
	// Chunker splits document content.
	Chunker *chunker.Chunker

	// Models resolves EmbeddingModel into a loaded embedder.
	Models *embeddings.ModelCache

	// EmbeddingModel is recorded on every stored chunk.
	EmbeddingModel string

	// Driver stores the embedded chunks.
	Driver vector.Driver

	// Publisher receives document events. Defaults to a no-op publisher.
	Publisher eventstream.Publisher

	// Source is stamped on every published event.
	Source eventstream.EventSource

	// Timeout bounds the embedding and vector store calls. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Indexer chunks, embeds and stores documents. Work on one document id is
// serialized; different documents are indexed concurrently.
type Indexer struct {
	chunker   *chunker.Chunker
	models    *embeddings.ModelCache
	model     string
	driver    vector.Driver
	publisher eventstream.Publisher
	source    eventstream.EventSource
	policy    callPolicy
	locks     *keyedMutex
	logger    *zap.Logger
}

// NewIndexer creates an Indexer from c.
func NewIndexer(c *IndexerConfig) (*Indexer, error) {
	if c.Chunker == nil {
		return nil, errors.New("indexer requires a chunker")
	}
	if c.Models == nil {
		return nil, errors.New("indexer requires a model cache")
	}
	if c.Driver == nil {
		return nil, errors.New("indexer requires a vector driver")
	}
	if c.EmbeddingModel == "" {
		return nil, &vector.ConfigurationError{Field: "embedding.model", Reason: "must not be empty"}
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	publisher := c.Publisher
	if publisher == nil {
		publisher = nop.NewPublisher()
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Indexer{
		chunker:   c.Chunker,
		models:    c.Models,
		model:     c.EmbeddingModel,
		driver:    c.Driver,
		publisher: publisher,
		source:    c.Source,
		policy: callPolicy{
			timeout:    timeout,
			retryDelay: DefaultRetryDelay,
			logger:     logger,
		},
		locks:  newKeyedMutex(),
		logger: logger,
	}, nil
}

// Index replaces the stored chunks of documentID with chunks of content and
// returns how many were stored. Either every chunk is stored or none is.
// Empty content removes the document and stores nothing.
func (ix *Indexer) Index(ctx context.Context, documentID, title, content string) (int, error) {
	if documentID == "" {
		return 0, &vector.ConfigurationError{Field: "document_id", Reason: "must not be empty"}
	}
	if title == "" {
		title = documentID
	}

	chunks := ix.chunker.Chunk(documentID, title, content)

	// Embedding happens outside the document lock; only the store mutation
	// has to be exclusive.
	var embedded []vector.EmbeddedChunk
	if len(chunks) > 0 {
		var err error
		embedded, err = ix.embed(ctx, chunks)
		if err != nil {
			return 0, fmt.Errorf("indexing %s: %w", documentID, err)
		}
	}

	unlock := ix.locks.Lock(documentID)
	defer unlock()

	if len(embedded) == 0 {
		n, err := bounded(ctx, ix.policy, "delete", func(ctx context.Context) (int, error) {
			return ix.driver.Delete(ctx, documentID)
		})
		if err != nil {
			return 0, fmt.Errorf("indexing %s: clearing previous chunks: %w", documentID, err)
		}
		ix.logger.Debug("document has no content to index",
			zap.String("document_id", documentID),
			zap.Int("removed", n),
		)
		if n > 0 {
			ix.publish(ctx, eventstream.EventTypeDocumentDeleted, eventstream.DocumentMeta{
				ID:     documentID,
				Chunks: n,
			})
		}
		return 0, nil
	}

	n, err := bounded(ctx, ix.policy, "upsert", func(ctx context.Context) (int, error) {
		return ix.driver.Upsert(ctx, embedded)
	})
	if err != nil {
		return 0, fmt.Errorf("indexing %s: storing chunks: %w", documentID, err)
	}

	ix.logger.Info("indexed document",
		zap.String("document_id", documentID),
		zap.Int("chunks", n),
	)

	ix.publish(ctx, eventstream.EventTypeDocumentIndexed, eventstream.DocumentMeta{
		ID:             documentID,
		Title:          title,
		Chunks:         n,
		EmbeddingModel: ix.model,
	})

	return n, nil
}

func (ix *Indexer) embed(ctx context.Context, chunks []vector.Chunk) ([]vector.EmbeddedChunk, error) {
	embedder, err := ix.models.GetOrLoad(ctx, ix.model)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vecs, err := bounded(ctx, ix.policy, "embed", func(ctx context.Context) ([][]float32, error) {
		return embedder.Embed(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}

	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", embeddings.ErrEmbedding, len(chunks), len(vecs))
	}

	out := make([]vector.EmbeddedChunk, len(chunks))
	for i, c := range chunks {
		out[i] = vector.EmbeddedChunk{
			Chunk:          c,
			Embedding:      vecs[i],
			EmbeddingModel: ix.model,
		}
	}
	return out, nil
}

// Delete removes every chunk of documentID and returns how many were removed.
// Removing an unknown document is not an error and returns 0.
func (ix *Indexer) Delete(ctx context.Context, documentID string) (int, error) {
	if documentID == "" {
		return 0, &vector.ConfigurationError{Field: "document_id", Reason: "must not be empty"}
	}

	unlock := ix.locks.Lock(documentID)
	defer unlock()

	n, err := bounded(ctx, ix.policy, "delete", func(ctx context.Context) (int, error) {
		return ix.driver.Delete(ctx, documentID)
	})
	if err != nil {
		return 0, fmt.Errorf("deleting %s: %w", documentID, err)
	}

	if n > 0 {
		ix.logger.Info("deleted document",
			zap.String("document_id", documentID),
			zap.Int("chunks", n),
		)
		ix.publish(ctx, eventstream.EventTypeDocumentDeleted, eventstream.DocumentMeta{
			ID:     documentID,
			Chunks: n,
		})
	}

	return n, nil
}

// publish reports failures in the log only; the mutation already happened.
func (ix *Indexer) publish(ctx context.Context, eventType string, doc eventstream.DocumentMeta) {
	event := eventstream.NewDocumentEvent(eventType, ix.source, doc)
	if err := ix.publisher.Publish(ctx, event); err != nil {
		ix.logger.Warn("failed to publish document event",
			zap.String("event_type", eventType),
			zap.String("document_id", doc.ID),
			zap.Error(err),
		)
	}
}
