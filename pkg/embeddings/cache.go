package embeddings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a single model load. Loads are detached from the
// caller that started them so concurrent waiters survive its cancellation.
const DefaultLoadTimeout = 2 * time.Minute

// Loader resolves a model name into a ready Embedder.
type Loader func(ctx context.Context, model string) (Embedder, error)

// ModelCache holds loaded embedders keyed by model name. Lookups of loaded
// models only take the read lock; a model is loaded at most once at a time
// and stored under the write lock.
type ModelCache struct {
	mu     sync.RWMutex
	models map[string]Embedder
	group  singleflight.Group
	loader Loader
	logger *zap.Logger
}

// NewModelCache creates an initialized cache using loader for misses.
func NewModelCache(loader Loader, logger *zap.Logger) *ModelCache {
	c := &ModelCache{
		loader: loader,
		logger: logger,
	}
	c.Init()
	return c
}

// Init prepares an empty cache. It is safe to call on an already
// initialized cache that holds no models.
func (c *ModelCache) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.models == nil {
		c.models = make(map[string]Embedder)
	}
}

// GetOrLoad returns the embedder for model, loading it on first use.
// Failures are returned as *ModelLoadError.
func (c *ModelCache) GetOrLoad(ctx context.Context, model string) (Embedder, error) {
	if model == "" {
		return nil, &ModelLoadError{Model: model, Err: errors.New("model name is required")}
	}

	if e, ok := c.lookup(model); ok {
		return e, nil
	}

	ch := c.group.DoChan(model, func() (any, error) {
		if e, ok := c.lookup(model); ok {
			return e, nil
		}

		c.logger.Info("loading embedding model", zap.String("model", model))

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultLoadTimeout)
		defer cancel()

		e, err := c.loader(loadCtx, model)
		if err != nil {
			var loadErr *ModelLoadError
			if errors.As(err, &loadErr) {
				return nil, err
			}
			return nil, &ModelLoadError{Model: model, Err: err}
		}

		c.mu.Lock()
		if c.models == nil {
			c.models = make(map[string]Embedder)
		}
		c.models[model] = e
		c.mu.Unlock()

		c.logger.Info("embedding model loaded",
			zap.String("model", model),
			zap.Uint("dimensions", e.Dimensions()),
		)

		return e, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Embedder), nil
	case <-ctx.Done():
		return nil, &ModelLoadError{Model: model, Err: ctx.Err()}
	}
}

// Loaded returns the names of loaded models in sorted order.
func (c *ModelCache) Loaded() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.models))
	for name := range c.models {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Clear closes and evicts every loaded model.
func (c *ModelCache) Clear() error {
	c.mu.Lock()
	models := c.models
	c.models = make(map[string]Embedder)
	c.mu.Unlock()

	var errs []error
	for name, e := range models {
		if err := e.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing embedding model %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (c *ModelCache) lookup(model string) (Embedder, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.models[model]
	return e, ok
}
