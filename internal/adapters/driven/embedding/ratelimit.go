// Package embedding provides decorators shared by the embedding adapters.
package embedding

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/citeline/internal/core/ports/driven"
)

// Ensure RateLimited implements the interface.
var _ driven.EmbeddingService = (*RateLimited)(nil)

// RateLimitError is returned by embedding adapters when the provider
// answers 429 Too Many Requests. RateLimited inspects it to open a
// backoff window before the next call.
type RateLimitError struct {
	// RetryAfterSeconds is the provider-suggested delay, 0 when absent.
	RetryAfterSeconds int

	// Err is the underlying provider error.
	Err error
}

func (e *RateLimitError) Error() string { return e.Err.Error() }

func (e *RateLimitError) Unwrap() error { return e.Err }

// ParseRetryAfter interprets a Retry-After header value as a delay in
// seconds. HTTP-date values and garbage yield 0, which callers treat as
// "no suggestion".
func ParseRetryAfter(value string) int {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}

// RateLimitConfig holds rate limiting configuration for an embedding provider.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimit is a conservative default, well below provider quotas.
var DefaultRateLimit = RateLimitConfig{RequestsPerSecond: 5.0, BurstSize: 10}

// RateLimited wraps an EmbeddingService with a token bucket limiter and
// optional backoff for 429 responses. Batch calls consume a single token
// since providers meter requests, not inputs.
type RateLimited struct {
	inner driven.EmbeddingService

	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimited wraps svc with the given rate limit configuration.
// Zero values fall back to DefaultRateLimit.
func NewRateLimited(svc driven.EmbeddingService, cfg RateLimitConfig) *RateLimited {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRateLimit.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultRateLimit.BurstSize
	}
	return &RateLimited{
		inner:   svc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Embed waits for a token, then delegates.
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	vec, err := r.inner.Embed(ctx, text)
	r.observe(err)
	return vec, err
}

// EmbedBatch waits for a token, then delegates.
func (r *RateLimited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	vecs, err := r.inner.EmbedBatch(ctx, texts)
	r.observe(err)
	return vecs, err
}

// Dimensions delegates to the wrapped service.
func (r *RateLimited) Dimensions() int { return r.inner.Dimensions() }

// ModelName delegates to the wrapped service.
func (r *RateLimited) ModelName() string { return r.inner.ModelName() }

// Ping delegates to the wrapped service without consuming a token.
func (r *RateLimited) Ping(ctx context.Context) error { return r.inner.Ping(ctx) }

// Close delegates to the wrapped service.
func (r *RateLimited) Close() error { return r.inner.Close() }

// RecordRateLimitError records a 429 from the provider and sets a backoff
// period that subsequent calls will respect.
func (r *RateLimited) RecordRateLimitError(retryAfterSeconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retryAfterSeconds <= 0 {
		retryAfterSeconds = 60
	}
	r.retryAt = time.Now().Add(time.Duration(retryAfterSeconds) * time.Second)
}

// observe starts a backoff window when the provider reported a 429.
func (r *RateLimited) observe(err error) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		r.RecordRateLimitError(rle.RetryAfterSeconds)
	}
}

// wait blocks until a request can be made without exceeding the rate limit,
// respecting any backoff period from RecordRateLimitError.
func (r *RateLimited) wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return r.limiter.Wait(ctx)
}
