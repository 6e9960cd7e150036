// Package upstream talks to a tenant's external data endpoint: probing
// the current data version with HEAD and streaming the record set with
// GET, both under the tenant's bearer token.
package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jaxxstorm/loansync/internal/config"
)

// FileType names one of the two datasets a tenant endpoint serves. The
// upstream file_type query parameter is category-scoped — e.g.
// "commercial_credit" — so FileType is built with FileTypeFor rather than
// used as a bare constant.
type FileType string

const (
	roleCredit  = "credit"
	rolePayment = "payment"
)

// FileTypeFor builds the upstream file_type value for a (category, role)
// pair, e.g. FileTypeFor("COMMERCIAL", true) -> "commercial_credit".
func FileTypeFor(category string, credits bool) FileType {
	role := rolePayment
	if credits {
		role = roleCredit
	}
	return FileType(strings.ToLower(category) + "_" + role)
}

// ErrUnavailable wraps a non-2xx response or transport failure from a
// tenant's upstream endpoint.
type ErrUnavailable struct {
	TenantSlug string
	FileType   FileType
	StatusCode int
	Cause      error
}

func (e *ErrUnavailable) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream unavailable for %s/%s: %v", e.TenantSlug, e.FileType, e.Cause)
	}
	return fmt.Sprintf("upstream unavailable for %s/%s: status %d", e.TenantSlug, e.FileType, e.StatusCode)
}

func (e *ErrUnavailable) Unwrap() error { return e.Cause }

// Client is a per-tenant HTTP client for a single upstream base URL.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	bearerToken string
	headTimeout time.Duration
	maxRetries  int
}

// New builds a Client for one tenant's upstream endpoint.
func New(cfg *config.UpstreamConfig, baseURL, bearerToken string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:     baseURL,
		bearerToken: bearerToken,
		headTimeout: cfg.HeadTimeout,
		maxRetries:  cfg.MaxRetries,
	}
}

func (c *Client) newRequest(ctx context.Context, method string, tenantID string, ft FileType) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	q := req.URL.Query()
	q.Set("file_type", string(ft))
	q.Set("tenant", tenantID)
	req.URL.RawQuery = q.Encode()
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	return req, nil
}

// withRetries runs fn up to maxRetries+1 times with linear backoff,
// returning the last error if every attempt fails. Retries only cover
// transport-level failures; a non-2xx HTTP status is not retried since
// the endpoint has already answered deterministically.
func (c *Client) withRetries(ctx context.Context, fn func() (*http.Response, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
