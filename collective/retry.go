package collective

import (
	"context"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Retryer struct {
	attempts     uint
	maxAttempts  uint
	initialDelay time.Duration
	maxDelay     time.Duration
}

type RetryConfig struct {
	MaxAttempts  uint          // 0 means no limit.
	InitialDelay time.Duration // Default is 100 milliseconds.
	MaxDelay     time.Duration // Default is 5 seconds.
}

func NewRetryer(config RetryConfig) *Retryer {
	r := &Retryer{
		maxAttempts:  config.MaxAttempts,
		initialDelay: config.InitialDelay,
		maxDelay:     config.MaxDelay,
	}
	if r.initialDelay == 0 {
		r.initialDelay = 100 * time.Millisecond
	}
	if r.maxDelay == 0 {
		r.maxDelay = 5 * time.Second
	}
	return r
}

// ShouldWaitAndRetry sleeps with linear backoff after a failed attempt and
// reports whether another attempt should be made.
func (r *Retryer) ShouldWaitAndRetry(ctx context.Context, err error) bool {
	if err == nil {
		r.attempts = 0
		return true
	}
	r.attempts++
	l := ctxzap.Extract(ctx)
	if r.maxAttempts > 0 && r.attempts > r.maxAttempts {
		l.Warn("max attempts reached", zap.Error(err), zap.Uint("max_attempts", r.maxAttempts))
		return false
	}

	wait := min(time.Duration(r.attempts)*r.initialDelay, r.maxDelay)
	l.Debug("retrying", zap.Error(err), zap.Duration("wait", wait))

	select {
	case <-time.After(wait):
		return true
	case <-ctx.Done():
		return false
	}
}
