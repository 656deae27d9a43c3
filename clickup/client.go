package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonwraymond/clickops/observe"
)

// DefaultBaseURL is the ClickUp API root. Versioned prefixes (/v2, /v3)
// are part of each request path because the docs endpoints live on v3
// while everything else is v2.
const DefaultBaseURL = "https://api.clickup.com/api"

// Config configures the upstream client.
type Config struct {
	// Token is the ClickUp API token, sent as the Authorization header.
	Token string

	// TeamID is the workspace identifier used by team-scoped endpoints.
	TeamID string

	// BaseURL overrides the API root. Default: DefaultBaseURL.
	BaseURL string

	// RequestSpacing is the minimum interval between requests.
	// Default: 700ms (~85 req/min, under the free-plan limit).
	RequestSpacing time.Duration

	// MaxRetries is the number of retries after a 429 response.
	// Default: 3
	MaxRetries int

	// Timeout bounds each individual HTTP request. Default: 30s.
	Timeout time.Duration

	// HTTPClient overrides the underlying client. Default: http.DefaultClient.
	HTTPClient *http.Client

	// Metrics records upstream request counts. Default: discard.
	Metrics observe.Metrics
}

// Client is the upstream store adapter for the ClickUp REST API.
//
// Contract:
// - Concurrency: safe for concurrent use; requests are paced globally.
// - Errors: non-2xx responses become *APIError; 429s that survive all
//   retries become *RateLimitError. Errors are never swallowed.
type Client struct {
	cfg   Config
	pacer *pacer
	http  *http.Client
}

// New creates a new ClickUp client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	if cfg.TeamID == "" {
		return nil, ErrMissingTeam
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestSpacing == 0 {
		cfg.RequestSpacing = 700 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}

	return &Client{
		cfg:   cfg,
		pacer: newPacer(cfg.RequestSpacing),
		http:  cfg.HTTPClient,
	}, nil
}

// TeamID returns the configured workspace identifier.
func (c *Client) TeamID() string {
	return c.cfg.TeamID
}

// Request performs a paced HTTP request against the ClickUp API and
// returns the raw response body. Path must include the version prefix,
// e.g. "/v2/task/abc123". A 429 is retried up to MaxRetries times,
// honoring the Retry-After header when present.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("clickup: encode request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		raw, retryAfter, err := c.do(ctx, method, path, payload)
		var rle *RateLimitError
		if !errors.As(err, &rle) {
			return raw, err
		}
		if attempt >= c.cfg.MaxRetries {
			return nil, rle
		}

		delay := retryAfter
		if delay <= 0 {
			delay = c.cfg.RequestSpacing * time.Duration(attempt+1)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (json.RawMessage, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("clickup: build request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("clickup: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.cfg.Metrics.RecordUpstream(ctx, method, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("clickup: read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, 0, nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       path,
	}
	var upstream struct {
		Err   string `json:"err"`
		Ecode string `json:"ECODE"`
	}
	if json.Unmarshal(data, &upstream) == nil {
		apiErr.Message = upstream.Err
		apiErr.Code = upstream.Ecode
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		var after time.Duration
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, err := strconv.Atoi(s); err == nil {
				after = time.Duration(secs) * time.Second
			}
		}
		return nil, after, &RateLimitError{APIError: *apiErr, RetryAfter: after}
	}

	return nil, 0, apiErr
}

// get is a typed helper decoding a single JSON object response.
func (c *Client) get(ctx context.Context, path string) (Entity, error) {
	raw, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeEntity(raw)
}

func decodeEntity(raw json.RawMessage) (Entity, error) {
	var e Entity
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("clickup: decode entity: %w", err)
	}
	return e, nil
}

// decodeListOf unwraps ClickUp's enveloped arrays, e.g. {"tasks": [...]}.
func decodeListOf(raw json.RawMessage, key string) ([]Entity, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("clickup: decode %s envelope: %w", key, err)
	}
	inner, ok := envelope[key]
	if !ok {
		return nil, fmt.Errorf("clickup: response missing %q", key)
	}
	var items []Entity
	if err := json.Unmarshal(inner, &items); err != nil {
		return nil, fmt.Errorf("clickup: decode %s: %w", key, err)
	}
	return items, nil
}

func queryString(params url.Values) string {
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}
