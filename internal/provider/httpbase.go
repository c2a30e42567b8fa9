package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPBase is the shared HTTP plumbing every vendor adapter embeds: a
// timed client and exponential-backoff retry, adapted from the teacher
// framework's providers.BaseClient. Vendor adapters are otherwise
// independent — HTTPBase holds no credentials or model defaults, since
// those differ per vendor and are resolved by AdapterFactory.New.
type HTTPBase struct {
	HTTPClient *http.Client
	MaxRetries int
	RetryDelay time.Duration
}

// NewHTTPBase builds an HTTPBase with the given request timeout. The
// transport is wrapped in otelhttp so every vendor call emits an HTTP
// client span, nested under whichever span the Provider Router's own
// instrumentation already opened for the call.
func NewHTTPBase(timeout time.Duration) *HTTPBase {
	return &HTTPBase{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// ExecuteWithRetry performs req with exponential backoff on 5xx/429/network
// errors, returning immediately on success or a non-retryable 4xx.
func (b *HTTPBase) ExecuteWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= b.MaxRetries; attempt++ {
		reqClone := req.Clone(ctx)

		resp, err := b.HTTPClient.Do(reqClone)
		if err == nil && resp.StatusCode < 400 {
			return resp, nil
		}
		if err == nil && resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			resp.Body.Close()
		}

		if attempt < b.MaxRetries {
			var shift uint
			if attempt >= 0 && attempt < 32 {
				shift = uint(attempt)
			} else {
				shift = 31
			}
			delay := b.RetryDelay * time.Duration(1<<shift)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", b.MaxRetries, lastErr)
}

// HandleHTTPError turns a non-2xx vendor response into a descriptive error.
// The router wraps whatever this returns in corekit.ProviderError, so the
// message only needs to be vendor-specific, not control-plane-typed.
func HandleHTTPError(statusCode int, body []byte, vendor string) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: invalid or rejected API key (status %d)", vendor, statusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: rate limit exceeded", vendor)
	case http.StatusBadRequest:
		return fmt.Errorf("%s: invalid request - %s", vendor, string(body))
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("%s: service temporarily unavailable (status %d)", vendor, statusCode)
	default:
		return fmt.Errorf("%s: API error (status %d): %s", vendor, statusCode, string(body))
	}
}
