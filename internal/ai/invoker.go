package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-ai-service/internal/config"
)

// Error messages matching any of these markers are considered transient and
// worth retrying.
var transientMarkers = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"connection",
	"unavailable",
	"bad gateway",
	"502",
	"503",
	"504",
	"internal server error",
}

// Invoker wraps a Runner with bounded resilience: up to MaxAttempts attempts,
// each under its own hard timeout, exponential backoff capped at BackoffCap.
// Non-retryable errors and attempt exhaustion propagate to the caller.
type Invoker struct {
	runner Runner
	logger *zap.Logger

	maxAttempts    int
	attemptTimeout time.Duration
	backoffCap     time.Duration
	backoffUnit    time.Duration
}

// NewInvoker builds an invoker from the AI configuration.
func NewInvoker(runner Runner, cfg config.AIConfig, logger *zap.Logger) *Invoker {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	attemptTimeout := cfg.AttemptTimeout()
	if attemptTimeout <= 0 {
		attemptTimeout = 12 * time.Second
	}
	backoffCap := time.Duration(cfg.BackoffCapSeconds) * time.Second
	if backoffCap <= 0 {
		backoffCap = 4 * time.Second
	}
	return &Invoker{
		runner:         runner,
		logger:         logger,
		maxAttempts:    maxAttempts,
		attemptTimeout: attemptTimeout,
		backoffCap:     backoffCap,
		backoffUnit:    time.Second,
	}
}

// Invoke runs the task with retries. The caller bounds the whole call with its
// own context deadline; a context error on that outer deadline is returned
// as-is so the caller can distinguish overall timeout from a fatal failure.
func (i *Invoker) Invoke(ctx context.Context, task string) (*RunResult, error) {
	var lastErr error

	for attempt := 1; attempt <= i.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := i.sleep(ctx, i.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, i.attemptTimeout)
		result, err := i.runner.Run(attemptCtx, task)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			// The overall budget is spent, not just this attempt.
			return nil, ctx.Err()
		}
		if !IsTransient(err) {
			return nil, err
		}
		i.logger.Warn("planning service attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	return nil, fmt.Errorf("planning service failed after %d attempts: %w", i.maxAttempts, lastErr)
}

// ContinueRun resumes a previously suspended plan after a human decision.
// Single attempt; callers treat failures as best-effort.
func (i *Invoker) ContinueRun(ctx context.Context, planID, reason string) (*RunResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, i.attemptTimeout)
	defer cancel()
	return i.runner.ContinueRun(attemptCtx, planID, reason)
}

// IsTransient classifies an error as retryable.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// backoff returns min(2^failed, cap) in backoff units.
func (i *Invoker) backoff(failed int) time.Duration {
	d := i.backoffUnit
	for n := 0; n < failed; n++ {
		d *= 2
		if d >= i.backoffCap {
			return i.backoffCap
		}
	}
	return d
}

func (i *Invoker) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
