// Package webhook posts transfer events as JSON to an HTTP endpoint.
// Transient failures are retried with exponential backoff.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/justapithecus/monochrome/adapter"
	"github.com/justapithecus/monochrome/iox"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// SignatureHeader carries the hex HMAC-SHA256 of the body when a secret
// is configured.
const SignatureHeader = "X-Monochrome-Signature"

const (
	maxDrain      = 64 << 10
	maxRetryAfter = 30 * time.Second
)

// Config configures the webhook adapter.
type Config struct {
	// URL is the endpoint to POST to (required).
	URL string
	// Headers are added to each request.
	Headers map[string]string
	// Secret signs each body. Empty disables signing.
	Secret string
	// Timeout is the per-request timeout (default 10s).
	Timeout time.Duration
	// Retries is the number of retries after the first attempt.
	Retries int
}

// Adapter publishes transfer events via HTTP POST.
type Adapter struct {
	config Config
	client *http.Client
}

// New creates a webhook adapter. The URL is required.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook adapter requires a URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	return &Adapter{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Publish posts the event. 5xx responses and network errors are retried;
// 4xx responses fail immediately.
func (a *Adapter) Publish(ctx context.Context, event *adapter.TransferCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	var lastErr error
	attempts := 1 + a.config.Retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("webhook: context canceled: %w", err)
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("webhook: context canceled during backoff: %w", ctx.Err())
			case <-time.After(retryDelay(i, lastErr)):
			}
		}

		lastErr = a.post(ctx, body)
		if lastErr == nil {
			return nil
		}

		var statusErr *StatusError
		if errors.As(lastErr, &statusErr) && !statusErr.Retriable() {
			return fmt.Errorf("webhook: non-retriable error: %w", lastErr)
		}
	}

	return fmt.Errorf("webhook: failed after %d attempts: %w", attempts, lastErr)
}

// retryDelay is the backoff for attempt i, stretched to any Retry-After
// the endpoint asked for.
func retryDelay(i int, last error) time.Duration {
	d := adapter.Backoff(i)
	var statusErr *StatusError
	if errors.As(last, &statusErr) && statusErr.RetryAfter > d {
		d = statusErr.RetryAfter
	}
	return d
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	// RetryAfter is the delay requested by a 429 or 503 response.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Retriable reports whether the status is worth retrying.
func (e *StatusError) Retriable() bool {
	return e.Code < 400 || e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// parseRetryAfter reads a delay-seconds Retry-After header, capped at
// maxRetryAfter. HTTP-date values are ignored.
func parseRetryAfter(h string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || secs <= 0 {
		return 0
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter)
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (a *Adapter) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range a.config.Headers {
		req.Header.Set(k, v)
	}
	if a.config.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(a.config.Secret, body))
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer iox.Drain(resp.Body, maxDrain)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	return nil
}

// Close releases idle connections.
func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

var _ adapter.Adapter = (*Adapter)(nil)
