// Package retry computes the delays between render attempts of a route.
package retry

import (
	"context"
	"time"

	"git.home.luguber.info/inful/langexport/internal/config"
	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

const (
	defaultInitial = time.Second
	defaultMax     = 30 * time.Second
)

// Policy decides how often and how long to wait before rendering a route again.
// The zero Policy never retries.
type Policy struct {
	Mode config.RetryBackoffMode
	// Initial is the delay before the first retry and the growth step.
	Initial time.Duration
	// Max caps every delay.
	Max time.Duration
	// MaxRetries counts attempts after the first one.
	MaxRetries int
}

// DefaultPolicy grows linearly from 1s up to 30s and never retries.
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffLinear, Initial: defaultInitial, Max: defaultMax}
}

// NewPolicy fills non-positive durations and unknown modes from DefaultPolicy.
// Initial is clamped to Max.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, retries int) Policy {
	p := DefaultPolicy()
	switch mode {
	case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
		p.Mode = mode
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	p.Initial = min(p.Initial, p.Max)
	p.MaxRetries = max(retries, 0)
	return p
}

// FromConfig returns the policy configured under render.
func FromConfig(r config.RenderConfig) Policy {
	return NewPolicy(r.RetryBackoff, r.RetryInitialDuration(), r.RetryMaxDuration(), r.Retries)
}

// Delay returns the wait before retry n, counting from 1. It is zero for n < 1.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffFixed:
		d = p.Initial
	case config.RetryBackoffExponential:
		shift := min(n-1, 62)
		if p.Initial > p.Max>>shift {
			return p.Max
		}
		d = p.Initial << shift
	default:
		if p.Initial > p.Max/time.Duration(n) {
			return p.Max
		}
		d = time.Duration(n) * p.Initial
	}
	return min(d, p.Max)
}

// Validate rejects policies that cannot produce a delay.
func (p Policy) Validate() error {
	switch {
	case p.Initial <= 0:
		return errors.ValidationError("retry initial delay must be positive").Build()
	case p.Max <= 0:
		return errors.ValidationError("retry max delay must be positive").Build()
	case p.MaxRetries < 0:
		return errors.ValidationError("retry count must not be negative").Build()
	}
	return nil
}

// Wait blocks for Delay(n) or until ctx is done, returning ctx.Err() in the latter case.
func (p Policy) Wait(ctx context.Context, n int) error {
	d := p.Delay(n)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
