package embedder

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Provider with a token-bucket limiter so the resource
// manager can cap outbound embedding calls independent of which transport
// is configured.
type RateLimited struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with a limiter allowing ratePerSecond calls
// per second, with burst as the initial allowance.
func NewRateLimited(inner Provider, ratePerSecond float64, burst int) *RateLimited {
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Embed implements Provider, blocking until the limiter admits the call or
// ctx is cancelled.
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Embed(ctx, text)
}

// Dimensions implements Provider.
func (r *RateLimited) Dimensions() int { return r.inner.Dimensions() }
