// Package hashing implements a deterministic, dependency free embedder that
// projects word and character trigram features onto a fixed number of
// dimensions. It needs no model server, which makes it the default for local
// indexes and tests.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/papercomputeco/ragline/pkg/embeddings"
)

const (
	// ModelName identifies vectors produced by this embedder.
	ModelName = "hashing-v1"

	// DefaultDimensions matches the dimension of common small sentence models.
	DefaultDimensions = 384

	wordWeight    = 1.0
	trigramWeight = 0.5
)

// Embedder is a feature hashing embedder.
type Embedder struct {
	dims uint
}

// NewEmbedder creates a hashing embedder producing vectors of dims length.
func NewEmbedder(dims uint) (*Embedder, error) {
	if dims == 0 {
		dims = DefaultDimensions
	}
	if dims < 8 {
		return nil, fmt.Errorf("hashing embedder needs at least 8 dimensions, got %d", dims)
	}

	return &Embedder{dims: dims}, nil
}

// Embed converts each text into an L2 normalized vector.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", embeddings.ErrEmbedding, err)
		}
		out[i] = e.vector(text)
	}
	return out, nil
}

// EmbedOne converts text into an L2 normalized vector.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", embeddings.ErrEmbedding, err)
	}
	return e.vector(text), nil
}

func (e *Embedder) Model() string { return ModelName }

func (e *Embedder) Dimensions() uint { return e.dims }

func (e *Embedder) Close() error { return nil }

func (e *Embedder) vector(text string) []float32 {
	acc := make([]float64, e.dims)

	// A Caser is stateful, so every call builds its own.
	folded := cases.Lower(language.Und).String(norm.NFC.String(text))

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	for _, w := range words {
		e.add(acc, "w:"+w, wordWeight)

		padded := []rune("#" + w + "#")
		for i := 0; i+3 <= len(padded); i++ {
			e.add(acc, "t:"+string(padded[i:i+3]), trigramWeight)
		}
	}

	var norm2 float64
	for _, v := range acc {
		norm2 += v * v
	}

	out := make([]float32, e.dims)
	if norm2 == 0 {
		return out
	}

	scale := 1 / math.Sqrt(norm2)
	for i, v := range acc {
		out[i] = float32(v * scale)
	}
	return out
}

// add hashes feature into a bucket; the top bit of the hash picks the sign so
// collisions cancel out on average.
func (e *Embedder) add(acc []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx := sum % uint64(e.dims)
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[idx] += weight
}

var _ embeddings.Embedder = (*Embedder)(nil)
