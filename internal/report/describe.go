package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Describer produces a short sales-facing description from a rendered
// prompt.
type Describer interface {
	Describe(ctx context.Context, prompt string) (string, error)
}

// RateLimitedDescriber spaces upstream calls out so a burst of parallel
// workers stays under the provider's requests-per-minute ceiling.
type RateLimitedDescriber struct {
	inner   Describer
	limiter *rate.Limiter
}

// NewRateLimitedDescriber wraps inner with an rpm ceiling. rpm <= 0
// disables limiting.
func NewRateLimitedDescriber(inner Describer, rpm int) *RateLimitedDescriber {
	var limiter *rate.Limiter
	if rpm > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}
	return &RateLimitedDescriber{inner: inner, limiter: limiter}
}

// Describe waits for a limiter slot, then delegates.
func (d *RateLimitedDescriber) Describe(ctx context.Context, prompt string) (string, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for describe slot: %w", err)
		}
	}
	return d.inner.Describe(ctx, prompt)
}
