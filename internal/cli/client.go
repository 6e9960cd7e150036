package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jaxxstorm/loansync/internal/api/models"
	"github.com/jaxxstorm/loansync/internal/apiversion"
)

// Client talks to the operator trigger API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a Client. apiKey is sent as X-API-Key on every request.
func NewClient(baseURL, apiKey string) *Client {
	baseURL = apiversion.NormalizeBaseURL(baseURL)
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// TriggerSync calls POST /api/sync for the tenant resolved from the
// client's API key. force nil means "use the server default" (true).
func (c *Client) TriggerSync(ctx context.Context, category string, force *bool) (*models.TriggerSyncResponse, error) {
	url := fmt.Sprintf("%s/api/sync", apiBaseWithoutVersion(c.baseURL))

	body, err := json.Marshal(models.TriggerSyncRequest{LoanCategory: category, Force: force})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := handleErrorResponse(resp); err != nil {
		return nil, err
	}

	var triggered models.TriggerSyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&triggered); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &triggered, nil
}

// GetJob calls GET /api/jobs/{id} for a job owned by the tenant resolved
// from the client's API key.
func (c *Client) GetJob(ctx context.Context, jobID string) (*models.SyncJobResponse, error) {
	url := fmt.Sprintf("%s/api/jobs/%s", apiBaseWithoutVersion(c.baseURL), jobID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := handleErrorResponse(resp); err != nil {
		return nil, err
	}

	var job models.SyncJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &job, nil
}

// apiBaseWithoutVersion strips the trailing /v1 segment NormalizeBaseURL
// adds, since the trigger endpoint lives at /api/sync, not under the
// versioned prefix.
func apiBaseWithoutVersion(baseURL string) string {
	return strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/"+apiversion.Current)
}

func handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	if len(body) == 0 {
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	var apiErr models.ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("api error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if apiErr.Error != "" {
		return fmt.Errorf("api error: %s", apiErr.Error)
	}

	return fmt.Errorf("api error: status %d", resp.StatusCode)
}
