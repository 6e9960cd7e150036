package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/jaxxstorm/loansync/internal/normalizer"
)

// RecordHandler is called once per raw record decoded from the upstream
// response stream, before normalization. Returning an error aborts the
// stream.
type RecordHandler func(rec normalizer.RawRecord) error

// StreamRecords GETs the dataset for (tenantID, ft) and decodes it as a
// JSON array without buffering the whole body in memory, invoking handle
// once per element in document order. A non-2xx response yields
// ErrUnavailable.
func (c *Client) StreamRecords(ctx context.Context, tenantSlug, tenantID string, ft FileType, handle RecordHandler) error {
	req, err := c.newRequest(ctx, http.MethodGet, tenantID, ft)
	if err != nil {
		return err
	}

	resp, err := c.withRetries(ctx, func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		return &ErrUnavailable{TenantSlug: tenantSlug, FileType: ft, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ErrUnavailable{TenantSlug: tenantSlug, FileType: ft, StatusCode: resp.StatusCode}
	}

	dec := jx.Decode(resp.Body, 64*1024)
	index := 0
	err = dec.Arr(func(d *jx.Decoder) error {
		raw, err := d.Raw()
		if err != nil {
			return fmt.Errorf("read record %d: %w", index, err)
		}
		var rec normalizer.RawRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("decode record %d: %w", index, err)
		}
		index++
		return handle(rec)
	})
	if err != nil {
		return fmt.Errorf("stream records for %s/%s: %w", tenantSlug, ft, err)
	}
	return nil
}
