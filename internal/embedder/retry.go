package embedder

import (
	"context"
	"time"
)

// Retrying wraps a Provider with a single retry after a fixed backoff, per
// the embedding-failure retry policy: one retry before surfacing the error
// to the caller.
type Retrying struct {
	inner   Provider
	backoff time.Duration
}

// NewRetrying wraps inner with a single retry after backoff.
func NewRetrying(inner Provider, backoff time.Duration) *Retrying {
	return &Retrying{inner: inner, backoff: backoff}
}

// Embed implements Provider.
func (r *Retrying) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := r.inner.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(r.backoff):
	}
	return r.inner.Embed(ctx, text)
}

// Dimensions implements Provider.
func (r *Retrying) Dimensions() int { return r.inner.Dimensions() }
