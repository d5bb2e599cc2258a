package resilience

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Transport is an http.RoundTripper that retries idempotent failures with
// exponential backoff and consults a circuit breaker before every attempt.
// Responses with status >= 500 or 429 count as failures.
type Transport struct {
	Base        http.RoundTripper
	Breaker     *Breaker
	BaseBackoff time.Duration
	MaxAttempts int
	Jitter      float64
}

// RoundTrip implements http.RoundTripper. Request bodies are buffered so they
// can be replayed. A nil Breaker never trips; an open one yields ErrOpenCircuit.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	breaker := t.Breaker
	maxAttempts := t.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if !retryable(req.Method) {
		maxAttempts = 1
	}
	baseBackoff := t.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}
	ctx := req.Context()

	body, err := bufferBody(req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if breaker != nil && !breaker.Allow(ctx) {
			return nil, ErrOpenCircuit
		}
		attemptReq := req.Clone(ctx)
		if body != nil {
			attemptReq.Body = io.NopCloser(bytes.NewReader(body))
		}
		resp, err := base.RoundTrip(attemptReq)
		ok := err == nil && !failedStatus(resp.StatusCode)
		if breaker != nil {
			breaker.Report(ctx, ok)
		}
		if ok {
			return resp, nil
		}
		if attempt == maxAttempts {
			// hand the last response to the caller so it can read the error body
			if err == nil {
				return resp, nil
			}
			lastErr = err
			break
		}
		if err == nil {
			lastErr = fmt.Errorf("upstream status %s", resp.Status)
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		} else {
			lastErr = err
		}
		timer := time.NewTimer(Backoff(baseBackoff, attempt, t.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if lastErr == nil {
		lastErr = errors.New("resilience: request failed")
	}
	return nil, lastErr
}

// NewHTTPClient returns a traced client whose transport retries through a
// breaker registered under target.
func NewHTTPClient(target string, timeout time.Duration, attempts int) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(&Transport{
			Base:        http.DefaultTransport,
			Breaker:     NewBreaker(BreakerConfig{Target: target, MinRequests: 5, OpenFor: 30 * time.Second}),
			BaseBackoff: 200 * time.Millisecond,
			MaxAttempts: attempts,
			Jitter:      0.2,
		}),
	}
}

func retryable(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func failedStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	_ = req.Body.Close()
	return data, nil
}
