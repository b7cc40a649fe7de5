package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultQueryCacheSize is the number of vectors a CachedEmbedder keeps.
const DefaultQueryCacheSize = 1024

// CachedEmbedder memoizes vectors of an underlying Embedder in an LRU cache.
// Determinism of the wrapped model makes cached vectors interchangeable with
// fresh ones.
type CachedEmbedder struct {
	Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps e with an LRU cache of the given size.
func NewCachedEmbedder(e Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		size = DefaultQueryCacheSize
	}

	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}

	return &CachedEmbedder{Embedder: e, cache: cache}, nil
}

// EmbedOne returns the cached vector for text or embeds and caches it.
func (c *CachedEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if v, ok := c.cache.Get(key); ok {
		return slices.Clone(v), nil
	}

	v, err := c.Embedder.EmbedOne(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, slices.Clone(v))
	return v, nil
}

// Embed serves cached texts from the cache and embeds the rest in one batch.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if v, ok := c.cache.Get(c.key(text)); ok {
			out[i] = slices.Clone(v)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.Embedder.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", ErrEmbedding, len(missing), len(vecs))
	}

	for j, v := range vecs {
		out[missingIdx[j]] = v
		c.cache.Add(c.key(missing[j]), slices.Clone(v))
	}

	return out, nil
}

// Len returns the number of cached vectors.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

// Close purges the cache and closes the wrapped embedder.
func (c *CachedEmbedder) Close() error {
	c.cache.Purge()
	return c.Embedder.Close()
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(c.Model() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
