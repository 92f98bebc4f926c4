package sb

import (
	"context"
	"fmt"
	"net/url"
)

// Story is a source CMS story record. Identity is the numeric ID; Slug is
// the externally stable human key used for cross-run identifier mapping.
type Story struct {
	ID          int                    `json:"id,omitempty"`
	UUID        string                 `json:"uuid,omitempty"`
	Name        string                 `json:"name"`
	Slug        string                 `json:"slug"`
	FullSlug    string                 `json:"full_slug"`
	Content     map[string]interface{} `json:"content,omitempty"`
	CreatedAt   string                 `json:"created_at,omitempty"`
	UpdatedAt   string                 `json:"updated_at,omitempty"`
	PublishedAt string                 `json:"published_at,omitempty"`
	Published   bool                   `json:"published"`
	IsFolder    bool                   `json:"is_folder"`
	TagList     []string               `json:"tag_list,omitempty"`
}

// ContentType returns the story's declared component type, or "" when the
// content blob carries none.
func (s Story) ContentType() string {
	if s.Content == nil {
		return ""
	}
	if t, ok := s.Content["component"].(string); ok {
		return t
	}
	return ""
}

// StoriesPage is one page of a story listing.
type StoriesPage struct {
	Stories []Story
	Total   int
	Page    int
	PerPage int
}

type storiesResp struct {
	Stories []Story `json:"stories"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
}

type storyResp struct {
	Story Story `json:"story"`
}

// StoryListOpts narrows a story listing. Zero values mean "no filter".
type StoryListOpts struct {
	Page         int
	PerPage      int // 0 => default 25
	StartsWith   string
	ContentType  string
	WithTag      string
	UpdatedAtGTE string // incremental window, RFC3339-ish as the API expects
}

// Filters returns the non-empty filters as a map, recorded into SyncStatus
// so a resumed run can verify it matches the original one.
func (o StoryListOpts) Filters() map[string]string {
	f := make(map[string]string)
	if o.StartsWith != "" {
		f["starts_with"] = o.StartsWith
	}
	if o.ContentType != "" {
		f["content_type"] = o.ContentType
	}
	if o.WithTag != "" {
		f["with_tag"] = o.WithTag
	}
	if o.UpdatedAtGTE != "" {
		f["updated_at_gte"] = o.UpdatedAtGTE
	}
	if len(f) == 0 {
		return nil
	}
	return f
}

// ListStoriesPage fetches a single page of stories (without full content).
func (c *Client) ListStoriesPage(ctx context.Context, opt StoryListOpts) (StoriesPage, error) {
	page := opt.Page
	if page <= 0 {
		page = 1
	}
	perPage := opt.PerPage
	if perPage <= 0 {
		perPage = 25
	}

	u, err := url.Parse(c.spaceURL("/stories"))
	if err != nil {
		return StoriesPage{}, err
	}
	q := u.Query()
	q.Set("page", fmt.Sprint(page))
	q.Set("per_page", fmt.Sprint(perPage))
	for k, v := range opt.Filters() {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	var payload storiesResp
	if err := c.getJSON(ctx, "stories.list", page, u.String(), &payload); err != nil {
		return StoriesPage{}, err
	}
	return StoriesPage{
		Stories: payload.Stories,
		Total:   payload.Total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

// GetStoryWithContent fetches a single story including its full content tree.
func (c *Client) GetStoryWithContent(ctx context.Context, storyID int) (Story, error) {
	u := c.spaceURL(fmt.Sprintf("/stories/%d", storyID))
	var payload storyResp
	if err := c.getJSON(ctx, fmt.Sprintf("stories.get(%d)", storyID), 0, u, &payload); err != nil {
		return Story{}, err
	}
	return payload.Story, nil
}
