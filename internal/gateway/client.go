// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
)

const (
	defaultMaxAttempts    = 3
	defaultBackoffBase    = 1 * time.Second
	maxRateLimitWaits     = 2
	fallbackRateLimitWait = 60 * time.Second
)

// ErrAuthDenied marks a hard authorization failure: the API rejected the
// token itself, as opposed to a temporary rate limit. It is fatal to the
// whole collection run.
var ErrAuthDenied = errors.New("access denied: token may be invalid or expired")

// AuthError carries the repository that triggered a hard authorization failure.
type AuthError struct {
	Repo string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", e.Repo, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// outcome classifies the result of a single API call.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetryable
	outcomeRateLimited
	outcomeAuthFailure
	outcomePermanent
)

type classification struct {
	outcome outcome
	wait    time.Duration
	status  int
}

// classify maps a go-github response/error pair onto the outcome taxonomy.
// A 403 is only an auth failure when it carries no rate-limit signal; 429 is
// always a rate limit. 5xx, network timeouts and malformed response bodies
// are retryable.
func classify(resp *github.Response, err error, now time.Time) classification {
	if err == nil {
		return classification{outcome: outcomeSuccess}
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		wait := fallbackRateLimitWait
		if !rateErr.Rate.Reset.Time.IsZero() {
			wait = rateErr.Rate.Reset.Time.Sub(now)
			if wait < 0 {
				wait = 0
			}
		}
		return classification{outcome: outcomeRateLimited, wait: wait, status: http.StatusForbidden}
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		wait := fallbackRateLimitWait
		if abuseErr.RetryAfter != nil {
			wait = *abuseErr.RetryAfter
		}
		return classification{outcome: outcomeRateLimited, wait: wait, status: http.StatusForbidden}
	}

	if resp != nil && resp.Response != nil {
		switch resp.StatusCode {
		case http.StatusForbidden:
			if hasRateLimitSignal(resp.Response, err) {
				return classification{outcome: outcomeRateLimited, wait: rateLimitWait(resp.Header, now), status: resp.StatusCode}
			}
			return classification{outcome: outcomeAuthFailure, status: resp.StatusCode}
		case http.StatusTooManyRequests:
			return classification{outcome: outcomeRateLimited, wait: rateLimitWait(resp.Header, now), status: resp.StatusCode}
		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return classification{outcome: outcomeRetryable, status: resp.StatusCode}
		}
		if resp.StatusCode >= 400 {
			return classification{outcome: outcomePermanent, status: resp.StatusCode}
		}
		// 2xx with a decode error: unexpected response shape.
		return classification{outcome: outcomeRetryable, status: resp.StatusCode}
	}

	if errors.Is(err, context.Canceled) {
		return classification{outcome: outcomePermanent}
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return classification{outcome: outcomeRetryable}
	}

	// Connection resets and other transport-level failures.
	return classification{outcome: outcomeRetryable}
}

// hasRateLimitSignal reports whether a 403 response looks like rate limiting
// rather than a rejected token.
func hasRateLimitSignal(resp *http.Response, err error) bool {
	if resp.Header.Get("Retry-After") != "" {
		return true
	}
	if resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}

// rateLimitWait computes how long to sleep before retrying a rate-limited
// call. An explicit Retry-After header wins over the reset epoch; without
// either the fixed fallback applies.
func rateLimitWait(h http.Header, now time.Time) time.Duration {
	if ra := h.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if reset := h.Get("X-RateLimit-Reset"); reset != "" {
		if epoch, err := strconv.ParseInt(reset, 10, 64); err == nil {
			wait := time.Unix(epoch, 0).Sub(now)
			if wait < 0 {
				wait = 0
			}
			return wait
		}
	}
	return fallbackRateLimitWait
}

// call runs fn with retry and backoff. Retryable failures back off
// exponentially (1s, 2s, ...) up to the attempt cap; rate-limited calls wait
// the computed duration before trying again. Auth failures and permanent
// failures return immediately. All waits are blocking sleeps on the calling
// goroutine, interrupted only by context cancellation.
func (g *GitHubGateway) call(ctx context.Context, op string, fn func() (*github.Response, error)) error {
	attempts := 0
	rateWaits := 0
	for {
		resp, err := fn()
		cl := classify(resp, err, time.Now())
		switch cl.outcome {
		case outcomeSuccess:
			return nil
		case outcomeAuthFailure:
			return fmt.Errorf("%s: %w", op, ErrAuthDenied)
		case outcomePermanent:
			if cl.status != 0 {
				return fmt.Errorf("%s: unexpected status %d: %w", op, cl.status, err)
			}
			return fmt.Errorf("%s: %w", op, err)
		case outcomeRateLimited:
			if rateWaits >= maxRateLimitWaits {
				return fmt.Errorf("%s: still rate limited after %d waits: %w", op, rateWaits, err)
			}
			rateWaits++
			g.logger.Printf("%s: rate limited, waiting %s", op, cl.wait)
			if serr := sleep(ctx, cl.wait); serr != nil {
				return fmt.Errorf("%s: %w", op, serr)
			}
		case outcomeRetryable:
			attempts++
			if attempts >= g.maxAttempts {
				return fmt.Errorf("%s: giving up after %d attempts: %w", op, attempts, err)
			}
			backoff := g.backoffBase << uint(attempts-1)
			g.logger.Printf("%s: transient failure (attempt %d/%d), retrying in %s: %v", op, attempts, g.maxAttempts, backoff, err)
			if serr := sleep(ctx, backoff); serr != nil {
				return fmt.Errorf("%s: %w", op, serr)
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
