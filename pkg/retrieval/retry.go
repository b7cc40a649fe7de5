package retrieval

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/pkg/vector"
)

const (
	// DefaultTimeout bounds each embedding and vector store call.
	DefaultTimeout = 10 * time.Second

	// DefaultRetryDelay is waited before the single retry of a timed out call.
	DefaultRetryDelay = 200 * time.Millisecond
)

// callPolicy bounds a call with a timeout and retries it once when that
// timeout, not the caller's context, expired.
type callPolicy struct {
	timeout    time.Duration
	retryDelay time.Duration
	logger     *zap.Logger
}

func (p callPolicy) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

func bounded[T any](ctx context.Context, p callPolicy, name string, op func(context.Context) (T, error)) (T, error) {
	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++

		callCtx, cancel := p.context(ctx)
		defer cancel()

		v, err := op(callCtx)
		if err == nil {
			return v, nil
		}

		err = vector.ContextError(callCtx, err)
		if errors.Is(err, vector.ErrTimeout) && ctx.Err() == nil {
			p.logger.Warn("call timed out",
				zap.String("call", name),
				zap.Int("attempt", attempt),
				zap.Duration("timeout", p.timeout),
			)
			return v, err
		}

		return v, backoff.Permanent(err)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(p.retryDelay)),
		backoff.WithMaxTries(2),
	)
}
