package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const apiVersion = "v2021-06-07"

// APIError reports a failed destination call with enough context to retry
// the run: the operation and the HTTP status.
type APIError struct {
	Op     string
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

// AssetRef is the uploaded-image reference usable inside a document.
type AssetRef struct {
	Type  string `json:"_type"` // "image"
	Asset struct {
		Type string `json:"_type"` // "reference"
		Ref  string `json:"_ref"`
	} `json:"asset"`
}

// NewAssetRef builds an image reference for an uploaded asset document id.
func NewAssetRef(assetID string) AssetRef {
	var r AssetRef
	r.Type = "image"
	r.Asset.Type = "reference"
	r.Asset.Ref = assetID
	return r
}

// Client talks to the destination CMS data API for one project/dataset.
// Writes are paced with a fixed inter-request delay, mirroring the source
// client, because the destination rate-limits too.
type Client struct {
	http    *http.Client
	token   string
	dataset string
	base    string
	lim     *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (tests).
func WithBaseURL(u string) Option { return func(c *Client) { c.base = u } }

// WithDelay sets the fixed inter-request delay. Zero disables pacing.
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		c.lim = rate.NewLimiter(rate.Inf, 1)
		if d > 0 {
			c.lim = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// New creates a destination client.
func New(projectID, dataset, token string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		token:   token,
		dataset: dataset,
		base:    fmt.Sprintf("https://%s.api.sanity.io/%s", projectID, apiVersion),
		lim:     rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CreateOrReplace writes a document by its _id, replacing any previous
// version. Rerunning an import therefore updates the same destination
// record instead of duplicating it.
func (c *Client) CreateOrReplace(ctx context.Context, doc map[string]any) error {
	if doc["_id"] == "" || doc["_id"] == nil {
		return errors.New("document missing _id")
	}
	body := map[string]any{"mutations": []map[string]any{{"createOrReplace": doc}}}
	return c.mutate(ctx, "document.createOrReplace", body)
}

// Delete removes a document by id. Deleting an id that does not exist is not
// an error upstream.
func (c *Client) Delete(ctx context.Context, id string) error {
	body := map[string]any{"mutations": []map[string]any{{"delete": map[string]any{"id": id}}}}
	return c.mutate(ctx, "document.delete", body)
}

func (c *Client) mutate(ctx context.Context, op string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/data/mutate/%s", c.base, c.dataset)
	res, err := c.do(ctx, http.MethodPost, u, payload, "application/json")
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		return &APIError{Op: op, Status: res.StatusCode}
	}
	return nil
}

type queryResp struct {
	Result []string `json:"result"`
}

// ExistingIDs checks which of the given identifiers already exist, in one
// batched query rather than per-item existence checks.
func (c *Client) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	quoted, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	groq := fmt.Sprintf("*[_id in %s]._id", quoted)
	u := fmt.Sprintf("%s/data/query/%s?query=%s", c.base, c.dataset, url.QueryEscape(groq))
	res, err := c.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		return nil, &APIError{Op: "document.exists", Status: res.StatusCode}
	}
	var payload queryResp
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, err
	}
	for _, id := range payload.Result {
		out[id] = true
	}
	return out, nil
}

type uploadResp struct {
	Document struct {
		ID string `json:"_id"`
	} `json:"document"`
}

// UploadImage pushes an image binary and returns a reference embeddable in
// a document.
func (c *Client) UploadImage(ctx context.Context, data []byte, filename string) (AssetRef, error) {
	u := fmt.Sprintf("%s/assets/images/%s?filename=%s", c.base, c.dataset, url.QueryEscape(filename))
	res, err := c.do(ctx, http.MethodPost, u, data, "application/octet-stream")
	if err != nil {
		return AssetRef{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != 200 && res.StatusCode != 201 {
		return AssetRef{}, &APIError{Op: "asset.upload", Status: res.StatusCode}
	}
	var payload uploadResp
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return AssetRef{}, err
	}
	return NewAssetRef(payload.Document.ID), nil
}

func (c *Client) do(ctx context.Context, method, u string, body []byte, contentType string) (*http.Response, error) {
	if c.token == "" {
		return nil, errors.New("token empty")
	}
	if err := c.lim.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.http.Do(req)
}
