package vision

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mj1618/focusorder/internal/protocol"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// RetryPolicy is a bounded exponential backoff around one model call.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Transient decides whether an error is worth another attempt. Nil
	// means IsTransient.
	Transient func(error) bool
}

// DefaultRetryPolicy returns 3 attempts starting at 300ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   300 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Transient:   IsTransient,
	}
}

// Delay returns the wait before attempt (0-based) is retried.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 300 * time.Millisecond
	}
	d := base * time.Duration(1<<attempt)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Do runs fn until it succeeds, returns a non-transient error, the attempts
// run out, or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	transient := p.Transient
	if transient == nil {
		transient = IsTransient
	}

	var last error
	for i := 0; i < attempts; i++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		last = err
		if !transient(err) || i == attempts-1 {
			break
		}
		timer := time.NewTimer(p.Delay(i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return last
}

// IsTransient reports whether err is a rate limit, server error, timeout or
// malformed reply.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrInvalidJSON) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return transientStatus(apiErrPtr.Code)
	}
	return false
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// WithRetry wraps m so each Annotate call is retried under p.
func WithRetry(m Model, p RetryPolicy, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retrying{next: m, policy: p, logger: logger}
}

type retrying struct {
	next   Model
	policy RetryPolicy
	logger *zap.Logger
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) Annotate(ctx context.Context, in Input) (out protocol.ModelOutput, err error) {
	attempt := 0
	err = r.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		var callErr error
		out, callErr = r.next.Annotate(ctx, in)
		if callErr != nil {
			r.logger.Debug("model call failed", zap.Int("attempt", attempt), zap.Error(callErr))
		}
		return callErr
	})
	return out, err
}
