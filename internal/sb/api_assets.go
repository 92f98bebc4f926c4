package sb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Asset is a source asset's metadata record. Filename holds the source
// binary URL; the payload itself is fetched separately.
type Asset struct {
	ID          int    `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Alt         string `json:"alt,omitempty"`
	Title       string `json:"title,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// AssetsPage is one page of an asset listing.
type AssetsPage struct {
	Assets  []Asset
	Total   int
	Page    int
	PerPage int
}

type assetsResp struct {
	Assets []Asset `json:"assets"`
	Total  int     `json:"total"`
}

// ListAssetsPage fetches a single page of asset metadata.
func (c *Client) ListAssetsPage(ctx context.Context, page, perPage int) (AssetsPage, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 25
	}
	u, err := url.Parse(c.spaceURL("/assets"))
	if err != nil {
		return AssetsPage{}, err
	}
	q := u.Query()
	q.Set("page", fmt.Sprint(page))
	q.Set("per_page", fmt.Sprint(perPage))
	u.RawQuery = q.Encode()

	var payload assetsResp
	if err := c.getJSON(ctx, "assets.list", page, u.String(), &payload); err != nil {
		return AssetsPage{}, err
	}
	return AssetsPage{Assets: payload.Assets, Total: payload.Total, Page: page, PerPage: perPage}, nil
}

// DownloadAssetBinary fetches the asset payload from its source URL. The
// binary host is public CDN, no auth header.
func (c *Client) DownloadAssetBinary(ctx context.Context, srcURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, pageErr("assets.binary", 0, 0, err)
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		return nil, pageErr("assets.binary", 0, res.StatusCode, nil)
	}
	return io.ReadAll(res.Body)
}
