package upstream

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// DataVersionHeader carries the upstream's integer version counter for a
// given file type.
const DataVersionHeader = "X-Data-Version"

// ProbeVersion issues a HEAD request and returns the X-Data-Version header
// as an integer. A missing header, unparseable header, non-200 response,
// timeout, or transport error all mean "absent" (ok=false) rather than an
// error — an absent version can never trigger a false sync.
func (c *Client) ProbeVersion(ctx context.Context, tenantID string, ft FileType) (version int64, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, c.headTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodHead, tenantID, ft)
	if err != nil {
		return 0, false
	}

	resp, err := c.withRetries(ctx, func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, false
	}

	raw := strings.TrimSpace(resp.Header.Get(DataVersionHeader))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
