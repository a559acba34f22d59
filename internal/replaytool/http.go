package replaytool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/scorekeeper/internal/domain/types"
	"github.com/okian/scorekeeper/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a client for the service at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// get performs a GET request and decodes a 200 JSON body into out.
func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// CheckHealth verifies the service is running.
func (c *HTTPClient) CheckHealth(ctx context.Context) error {
	if err := c.get(ctx, "/healthz", nil); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}
	return nil
}

// Leaderboard fetches the service's EXP leaderboard, at most limit entries.
func (c *HTTPClient) Leaderboard(ctx context.Context, limit int) ([]types.Entry, error) {
	q := url.Values{}
	q.Set("by", string(types.ByEXP))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var entries []types.Entry
	if err := c.get(ctx, "/leaderboard?"+q.Encode(), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CompareLeaderboards checks that remote agrees with the leading entries of
// local, entry by entry.
func CompareLeaderboards(local, remote []types.Entry) error {
	if len(remote) > len(local) {
		return fmt.Errorf("service lists %d players, local replay has %d", len(remote), len(local))
	}
	var errs []error
	for i, r := range remote {
		if l := local[i]; l != r {
			errs = append(errs, fmt.Errorf("position %d: local %s (rank %d, EXP %d, cREP %d, JCE %d), service %s (rank %d, EXP %d, cREP %d, JCE %d)",
				i+1, l.Name, l.Rank, l.EXP, l.REP, l.JCE, r.Name, r.Rank, r.EXP, r.REP, r.JCE))
		}
	}
	return errors.Join(errs...)
}
