// Package httpretry wraps outbound HTTP calls with bounded retries and
// jittered exponential backoff. Every external fetch in casedeck (reference
// sheet, deck template, screenshot API, LLM calls, homepage scans) goes
// through a Client so transient upstream failures never surface directly.
package httpretry

import (
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// Doer executes a single HTTP request. *http.Client satisfies it, and so
// does *Client, so retry wrapping is transparent to callers.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client retries transient failures: network errors and the retryable
// status set (429, 500, 502, 503, 504). Client errors (4xx other than 429)
// and context cancellation return immediately.
type Client struct {
	next      Doer
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
}

// New wraps next with retry behavior. attempts counts retries after the
// initial request; zero or negative selects the default of 3. A nil next
// gets a plain http.Client with a 30s timeout.
func New(next Doer, attempts int) *Client {
	if next == nil {
		next = &http.Client{Timeout: 30 * time.Second}
	}
	if attempts <= 0 {
		attempts = 3
	}
	return &Client{
		next:      next,
		attempts:  attempts,
		baseDelay: time.Second,
		maxDelay:  30 * time.Second,
	}
}

// Do runs the request, retrying per the client's policy. The final
// attempt's response is returned as-is, even when its status is in the
// retryable set, so callers can read the body and report the real error.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var lastErr error
	var serverDelay time.Duration

	for attempt := 0; attempt <= c.attempts; attempt++ {
		if err := req.Context().Err(); err != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}

		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("httpretry: rewinding request body: %w", err)
				}
				req.Body = body
			}

			// A Retry-After from the previous response replaces the
			// jittered backoff, capped at maxDelay.
			delay := c.backoff(attempt)
			if serverDelay > 0 {
				delay = serverDelay
				if delay > c.maxDelay {
					delay = c.maxDelay
				}
				serverDelay = 0
			}

			// Host+path only: query strings can carry credentials and
			// never reach the log.
			log.Printf("[httpretry] attempt %d/%d for %s %s%s in %s (last error: %v)",
				attempt, c.attempts, req.Method, req.URL.Host, req.URL.Path, delay, lastErr)

			if err := sleepCtx(req, delay); err != nil {
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, err
			}
		}

		resp, err := c.next.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}

		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if attempt == c.attempts {
			return resp, nil
		}

		serverDelay = parseRetryAfter(resp.Header.Get("Retry-After"))
		lastErr = fmt.Errorf("httpretry: status %d from %s", resp.StatusCode, req.URL.Host)

		// Drain before closing so the connection can be reused.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	return nil, lastErr
}

// backoff computes full-jitter exponential delay:
// random(0, min(maxDelay, baseDelay*2^(attempt-1))), floored at 100ms.
func (c *Client) backoff(attempt int) time.Duration {
	exp := float64(c.baseDelay) * math.Pow(2, float64(attempt-1))
	if exp > float64(c.maxDelay) {
		exp = float64(c.maxDelay)
	}
	d := time.Duration(rand.Float64() * exp)
	if d < 100*time.Millisecond {
		d = 100 * time.Millisecond
	}
	return d
}

func sleepCtx(req *http.Request, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-req.Context().Done():
		return req.Context().Err()
	}
}

// parseRetryAfter reads the delay-seconds form of Retry-After. The HTTP-date
// form is rare on the services we call and falls back to zero.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
