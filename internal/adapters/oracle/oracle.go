// Package oracle is the HTTP client for the authoritative match
// oracle.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/matchverify"
	"github.com/djjrip/gg-loop-platform-sub004/pkg/logger"
)

const defaultTimeout = 5 * time.Second

// Client fetches match records over HTTP. Failures are classified for
// the verifier: 404 is terminal, 429 and 5xx and transport errors are
// retryable.
type Client struct {
	baseURL string
	client  *http.Client
	log     logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Client) {
		if c != nil {
			o.client = c
		}
	}
}

// WithTimeout bounds one oracle round trip.
func WithTimeout(d time.Duration) Option {
	return func(o *Client) {
		if d > 0 {
			o.client.Timeout = d
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(log logger.Logger) Option {
	return func(o *Client) {
		if log != nil {
			o.log = log
		}
	}
}

// NewClient creates an oracle client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		log:     logger.Get().Named("oracle"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MatchByID fetches the authoritative record for a match.
func (c *Client) MatchByID(ctx context.Context, matchID, region string) (matchverify.MatchRecord, error) {
	endpoint := fmt.Sprintf("%s/matches/%s", c.baseURL, url.PathEscape(matchID))
	if region != "" {
		endpoint += "?region=" + url.QueryEscape(region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return matchverify.MatchRecord{}, fmt.Errorf("build oracle request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return matchverify.MatchRecord{}, fmt.Errorf("%w: %w", matchverify.ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return matchverify.MatchRecord{}, fmt.Errorf("%w: %s", matchverify.ErrMatchNotFound, matchID)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return matchverify.MatchRecord{}, fmt.Errorf("%w: status %d", matchverify.ErrOracleUnavailable, resp.StatusCode)
	default:
		return matchverify.MatchRecord{}, fmt.Errorf("oracle rejected request: status %d", resp.StatusCode)
	}

	var rec matchverify.MatchRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return matchverify.MatchRecord{}, fmt.Errorf("%w: decode match record: %w", matchverify.ErrOracleUnavailable, err)
	}
	return rec, nil
}
