package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/posereps/internal/models"
	"github.com/meltforce/posereps/internal/storage"
)

// HTTPClient implements DataSource by calling the PoseReps REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey is
// sent for the session listing, which sits behind key auth.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) QueryRepEvents(ctx context.Context, f storage.RepFilter) ([]models.RepEvent, error) {
	params := timeParams(f.Start, f.End)
	if f.Exercise != "" {
		params.Set("exercise", string(f.Exercise))
	}
	if f.SessionID != uuid.Nil {
		params.Set("session", f.SessionID.String())
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}

	var events []models.RepEvent
	if err := c.get(ctx, "/api/v1/reps", params, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *HTTPClient) GetExerciseTotals(ctx context.Context, start, end time.Time) ([]models.ExerciseTotal, error) {
	var totals []models.ExerciseTotal
	if err := c.get(ctx, "/api/v1/reps/totals", timeParams(start, end), &totals); err != nil {
		return nil, err
	}
	return totals, nil
}

func (c *HTTPClient) GetRepSummary(ctx context.Context, start, end time.Time, bucket string) ([]storage.RepSummaryPeriod, error) {
	params := timeParams(start, end)
	params.Set("bucket", bucket)

	var summary []storage.RepSummaryPeriod
	if err := c.get(ctx, "/api/v1/reps/summary", params, &summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (c *HTTPClient) QuerySessions(ctx context.Context, limit int) ([]models.SessionRow, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var rows []models.SessionRow
	if err := c.get(ctx, "/api/v1/sessions", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *HTTPClient) GetRepStats(ctx context.Context) (*storage.RepStats, error) {
	var stats storage.RepStats
	if err := c.get(ctx, "/api/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
