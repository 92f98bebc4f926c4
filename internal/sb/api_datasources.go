package sb

import (
	"context"
	"fmt"
	"net/url"
)

// Datasource is a named key/value collection in the source CMS.
type Datasource struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// DatasourceEntry is one key/value pair inside a datasource.
type DatasourceEntry struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EntriesPage is one page of datasource entries.
type EntriesPage struct {
	Entries []DatasourceEntry
	Total   int
	Page    int
	PerPage int
}

type datasourcesResp struct {
	Datasources []Datasource `json:"datasources"`
}

type entriesResp struct {
	Entries []DatasourceEntry `json:"datasource_entries"`
	Total   int               `json:"total"`
}

// ListDatasources lists all datasources.
func (c *Client) ListDatasources(ctx context.Context) ([]Datasource, error) {
	var payload datasourcesResp
	if err := c.getJSON(ctx, "datasources.list", 1, c.spaceURL("/datasources"), &payload); err != nil {
		return nil, err
	}
	return payload.Datasources, nil
}

// ListDatasourceEntriesPage fetches one page of entries for a datasource.
func (c *Client) ListDatasourceEntriesPage(ctx context.Context, datasourceID, page, perPage int) (EntriesPage, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 25
	}
	u, err := url.Parse(c.spaceURL("/datasource_entries"))
	if err != nil {
		return EntriesPage{}, err
	}
	q := u.Query()
	q.Set("datasource_id", fmt.Sprint(datasourceID))
	q.Set("page", fmt.Sprint(page))
	q.Set("per_page", fmt.Sprint(perPage))
	u.RawQuery = q.Encode()

	var payload entriesResp
	if err := c.getJSON(ctx, "datasource_entries.list", page, u.String(), &payload); err != nil {
		return EntriesPage{}, err
	}
	return EntriesPage{Entries: payload.Entries, Total: payload.Total, Page: page, PerPage: perPage}, nil
}
