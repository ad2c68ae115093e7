package pacer

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"ndx-snapshot-backend/internal/upstream"
)

// Policy controls retries of upstream calls. Throttled attempts wait
// BasePace*ThrottleMultiplier*attempt, other upstream failures wait
// GenericDelay*attempt. Anything that is not an upstream failure is returned
// immediately.
type Policy struct {
	MaxAttempts        uint
	BasePace           time.Duration
	ThrottleMultiplier float64
	GenericDelay       time.Duration
}

func DefaultPolicy(basePace time.Duration) Policy {
	return Policy{
		MaxAttempts:        3,
		BasePace:           basePace,
		ThrottleMultiplier: 2,
		GenericDelay:       2 * time.Second,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(err error, attempt int) time.Duration {
	switch {
	case upstream.IsThrottling(err):
		return time.Duration(float64(p.BasePace) * p.ThrottleMultiplier * float64(attempt))
	case upstream.IsUpstream(err):
		return p.GenericDelay * time.Duration(attempt)
	default:
		return backoff.Stop
	}
}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	return upstream.IsThrottling(err) || upstream.IsUpstream(err)
}

type policyBackOff struct {
	policy  Policy
	attempt int
	lastErr error
}

func (b *policyBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.policy.Delay(b.lastErr, b.attempt)
}

func (b *policyBackOff) Reset() {
	b.attempt = 0
	b.lastErr = nil
}

// Retry runs op until it succeeds, fails with a non-retryable error, or the
// policy runs out of attempts. notify may be nil.
func Retry(ctx context.Context, policy Policy, op func() error, notify backoff.Notify) error {
	attempts := policy.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	b := &policyBackOff{policy: policy}
	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(attempts),
		backoff.WithMaxElapsedTime(0),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(notify))
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op()
		if err == nil {
			return struct{}{}, nil
		}
		b.lastErr = err
		if !Retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, opts...)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}
