package collector

import (
	"context"
	"errors"
	"time"
)

var ErrRetriesExhausted = errors.New("[Collector] retry budget exhausted")

// RetryPolicy bounds how long a single page request may be retried.
type RetryPolicy struct {
	// RateLimitCooldown is slept after every rate-limit response before the
	// same request is issued again.
	RateLimitCooldown time.Duration
	// ServerBackoff is the first delay after a 5xx; it doubles on every
	// further 5xx. The request is abandoned once the total time spent waiting
	// on 5xx responses would exceed MaxServerWait.
	ServerBackoff time.Duration
	MaxServerWait time.Duration
	// TransportBackoff doubles up to MaxTransportBackoff between network
	// failures. More than MaxTransportRetries consecutive failures abandon
	// the request.
	TransportBackoff    time.Duration
	MaxTransportBackoff time.Duration
	MaxTransportRetries int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		RateLimitCooldown:   15 * time.Minute,
		ServerBackoff:       5 * time.Second,
		MaxServerWait:       time.Hour,
		TransportBackoff:    time.Second,
		MaxTransportBackoff: 32 * time.Second,
		MaxTransportRetries: 10,
	}
}

// withDefaults replaces non-positive durations with their defaults.
func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.RateLimitCooldown <= 0 {
		p.RateLimitCooldown = d.RateLimitCooldown
	}
	if p.ServerBackoff <= 0 {
		p.ServerBackoff = d.ServerBackoff
	}
	if p.MaxServerWait <= 0 {
		p.MaxServerWait = d.MaxServerWait
	}
	if p.TransportBackoff <= 0 {
		p.TransportBackoff = d.TransportBackoff
	}
	if p.MaxTransportBackoff <= 0 {
		p.MaxTransportBackoff = d.MaxTransportBackoff
	}
	if p.MaxTransportRetries < 0 {
		p.MaxTransportRetries = 0
	}
	return p
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
