package testutils

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	// Embeddings maps exact texts to the vector returned for them.
	Embeddings map[string][]float32

	// FailOn causes Embed to return an error when the input text matches
	FailOn string

	// Delay is waited out before answering, honoring context cancellation.
	Delay time.Duration

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	// Dims is returned by Dimensions and sizes the default vector. Defaults to 3.
	Dims uint

	calls  atomic.Int32
	mu     sync.Mutex
	closed bool
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
	}
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if m.FailOn != "" && text == m.FailOn {
			return nil, fmt.Errorf("mock embedding failure for: %s", text)
		}

		if emb, ok := m.Embeddings[text]; ok {
			out[i] = emb
			continue
		}

		// Return a default embedding for any text
		out[i] = m.defaultVector()
	}
	return out, nil
}

func (m *MockEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	out, err := m.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *MockEmbedder) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

func (m *MockEmbedder) Dimensions() uint {
	if m.Dims == 0 {
		return 3
	}
	return m.Dims
}

// Calls returns how many times Embed or EmbedOne reached the embedder.
func (m *MockEmbedder) Calls() int {
	return int(m.calls.Load())
}

// Closed reports whether Close was called.
func (m *MockEmbedder) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockEmbedder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockEmbedder) defaultVector() []float32 {
	v := make([]float32, m.Dimensions())
	for i := range v {
		v[i] = 0.1 * float32(i+1)
	}
	return v
}
