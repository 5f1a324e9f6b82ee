package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/orchestrd/internal/logging"
)

// Default retry policy.
const (
	DefaultMaxAttempts = 7
	DefaultBaseDelay   = 2 * time.Second
)

// Retryer retries transient backend failures with exponential backoff.
// It holds no state across calls; each Complete is independent.
type Retryer struct {
	maxAttempts int
	baseDelay   time.Duration
	logger      *logging.Logger

	// sleep is injectable for tests. It must honor ctx cancellation.
	sleep func(ctx context.Context, d time.Duration) error
}

// RetryerOption configures a Retryer.
type RetryerOption func(*Retryer)

// WithMaxAttempts sets the total call ceiling (including the first attempt).
func WithMaxAttempts(n int) RetryerOption {
	return func(r *Retryer) { r.maxAttempts = n }
}

// WithBaseDelay sets the backoff seed: the wait before attempt n+1 is
// base * 2^n.
func WithBaseDelay(d time.Duration) RetryerOption {
	return func(r *Retryer) { r.baseDelay = d }
}

// WithSleep replaces the sleep function. Tests use this to record waits
// without actually sleeping.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) RetryerOption {
	return func(r *Retryer) { r.sleep = fn }
}

// NewRetryer creates a Retryer with the given policy.
func NewRetryer(logger *logging.Logger, opts ...RetryerOption) *Retryer {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Retryer{
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      logger,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Complete invokes the backend, retrying classified-transient failures up to
// the attempt ceiling. Fatal or unclassified errors propagate immediately;
// ceiling exhaustion propagates wrapped in ErrRetriesExhausted.
func (r *Retryer) Complete(ctx context.Context, backend Backend, req Request) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		resp, err := backend.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsTransient(err) {
			return nil, fmt.Errorf("backend call failed: %w", err)
		}

		lastErr = err
		if attempt == r.maxAttempts-1 {
			break
		}

		wait := r.baseDelay * (1 << attempt)
		r.logger.Warn("transient backend failure, backing off",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", r.maxAttempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		if err := r.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, r.maxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
