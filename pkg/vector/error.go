package vector

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document is not found in the vector store.
	ErrNotFound = errors.New("document not found")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrTimeout is returned when a vector store call exceeds its deadline.
	ErrTimeout = errors.New("vector store operation timed out")

	// ErrModelMismatch is returned when a chunk was embedded with a different
	// model than the one the index holds.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrInvalidChunk is returned when chunk metadata breaks its ordering invariant.
	ErrInvalidChunk = errors.New("invalid chunk")
)

// ConfigurationError reports an invalid setting such as a chunk overlap that
// is not smaller than the chunk size or an unsupported metric.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Reason)
}

// MetricMismatchError is returned when a search is issued with a metric other
// than the one the index was built with.
type MetricMismatchError struct {
	Index Metric
	Query Metric
}

func (e *MetricMismatchError) Error() string {
	return fmt.Sprintf("metric mismatch: index uses %q, query requested %q", e.Index, e.Query)
}

// DimensionMismatchError is returned when a vector's length differs from the
// dimension the index was configured with.
type DimensionMismatchError struct {
	Expected uint
	Got      uint
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: index expects %d, got %d", e.Expected, e.Got)
}

// ContextError maps err onto ErrTimeout when it was caused by a deadline so
// callers can tell an expired search apart from an empty one.
func ContextError(ctx context.Context, err error) error {
	if err == nil || errors.Is(err, ErrTimeout) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return err
}
