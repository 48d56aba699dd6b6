package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// RetryPolicy controls how Retrying waits between attempts. The wait
// schedules are indexed by attempt; the last entry repeats when the
// schedule is shorter than MaxAttempts-1.
type RetryPolicy struct {
	MaxAttempts      int
	RateLimitWaits   []time.Duration
	ServerErrorWaits []time.Duration
}

// DefaultRetryPolicy mirrors what the hosted APIs ask for: rate limits
// reset on a minute boundary, server errors are usually brief.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:      3,
		RateLimitWaits:   []time.Duration{65 * time.Second, 100 * time.Second},
		ServerErrorWaits: []time.Duration{5 * time.Second, 30 * time.Second},
	}
}

// Retrying decorates a Generator with rate-limit and server-error retries.
type Retrying struct {
	next   Generator
	policy RetryPolicy
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetrying wraps next with the given policy.
func NewRetrying(next Generator, policy RetryPolicy, logger *slog.Logger) *Retrying {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Retrying{
		next:   next,
		policy: policy,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Generate calls the wrapped generator, retrying transient failures.
func (r *Retrying) Generate(ctx context.Context, req Request) (string, error) {
	var lastErr error

	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		text, err := r.next.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var waits []time.Duration
		switch {
		case IsRateLimitError(err):
			waits = r.policy.RateLimitWaits
		case IsServerError(err):
			waits = r.policy.ServerErrorWaits
		default:
			return "", err
		}

		if attempt == r.policy.MaxAttempts-1 {
			break
		}

		wait := waitFor(waits, attempt)
		r.logger.Warn("Generation failed, retrying",
			"attempt", attempt+1,
			"wait", wait,
			"error", err,
		)

		if err := r.sleep(ctx, wait); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", r.policy.MaxAttempts, lastErr)
}

func waitFor(waits []time.Duration, attempt int) time.Duration {
	if len(waits) == 0 {
		return 0
	}
	if attempt >= len(waits) {
		return waits[len(waits)-1]
	}

	return waits[attempt]
}

func sleepContext(ctx context.Context, d time.Duration) error {
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

// statusText finds a three digit HTTP status on word boundaries, so byte
// counts like "15000" never read as a status.
var statusText = regexp.MustCompile(`\b(429|5\d\d)\b`)

// statusCode returns the HTTP status carried by a provider SDK error, or
// the first status-looking number in the error text.
func statusCode(err error) (int, bool) {
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode, true
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode, true
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiErr.Code, true
	}

	if m := statusText.FindStringSubmatch(err.Error()); m != nil {
		code, convErr := strconv.Atoi(m[1])
		return code, convErr == nil
	}

	return 0, false
}

// IsRateLimitError reports whether err looks like a provider rate limit.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := statusCode(err); ok && code == http.StatusTooManyRequests {
		return true
	}

	s := strings.ToLower(err.Error())

	return strings.Contains(s, "rate limit") ||
		strings.Contains(s, "too many requests") ||
		strings.Contains(s, "resource_exhausted") ||
		strings.Contains(s, "resource exhausted")
}

// IsServerError reports whether err looks like a transient provider failure.
func IsServerError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := statusCode(err); ok && code >= http.StatusInternalServerError {
		return true
	}

	s := strings.ToLower(err.Error())

	return strings.Contains(s, "internal server error") ||
		strings.Contains(s, "server_error") ||
		strings.Contains(s, "overloaded") ||
		strings.Contains(s, "unavailable")
}
