package sb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const defaultBase = "https://mapi.storyblok.com/v1"

// Client talks to the source CMS management API. All paginated listing is
// single-page: the download orchestrator owns the loop so that every page
// boundary is a durable checkpoint.
type Client struct {
	http    *http.Client
	token   string
	base    string
	spaceID int
	metrics *Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (tests).
func WithBaseURL(u string) Option { return func(c *Client) { c.base = u } }

// WithDelay sets the fixed inter-request delay. Zero disables pacing.
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		c.http.Transport = newPacedTransport(d, c.metrics)
	}
}

// New creates a client for one space. The default pacing is 200ms between
// requests.
func New(token string, spaceID int, opts ...Option) *Client {
	m := NewMetrics()
	c := &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		token:   token,
		base:    defaultBase,
		spaceID: spaceID,
		metrics: m,
	}
	c.http.Transport = newPacedTransport(200*time.Millisecond, m)
	for _, o := range opts {
		o(c)
	}
	return c
}

// Metrics exposes the request counters.
func (c *Client) Metrics() *Metrics { return c.metrics }

// getJSON issues a GET and decodes the response into out. Non-2xx responses
// surface as a PageError carrying endpoint and page.
func (c *Client) getJSON(ctx context.Context, endpoint string, page int, url string, out any) error {
	if c.token == "" {
		return errors.New("token empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Add("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return pageErr(endpoint, page, 0, err)
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		return pageErr(endpoint, page, res.StatusCode, nil)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return pageErr(endpoint, page, 0, err)
	}
	return nil
}

func (c *Client) spaceURL(path string) string {
	return fmt.Sprintf("%s/spaces/%d%s", c.base, c.spaceID, path)
}
