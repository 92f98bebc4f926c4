package sb

import (
	"context"
	"encoding/json"
)

// Component represents a source CMS component definition.
type Component struct {
	ID          int             `json:"id,omitempty"`
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name,omitempty"`
	Schema      json.RawMessage `json:"schema,omitempty"`
	IsRoot      bool            `json:"is_root,omitempty"`
	IsNestable  bool            `json:"is_nestable,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
	UpdatedAt   string          `json:"updated_at,omitempty"`
}

type componentsResp struct {
	Components []Component `json:"components"`
}

// ListComponents lists all component definitions. The components endpoint is
// not paginated upstream; it returns the full set in one response.
func (c *Client) ListComponents(ctx context.Context) ([]Component, error) {
	var payload componentsResp
	if err := c.getJSON(ctx, "components.list", 1, c.spaceURL("/components"), &payload); err != nil {
		return nil, err
	}
	return payload.Components, nil
}
