package transform

import (
	"errors"
	"fmt"

	"storyblok-migrate/internal/idmap"
	"storyblok-migrate/internal/sb"
)

// Article maps source "article" stories to destination article documents.
type Article struct {
	ids *idmap.Manager
}

// NewArticle creates the article transformer.
func NewArticle(ids *idmap.Manager) *Article { return &Article{ids: ids} }

func (a *Article) Family() string { return "article" }

// Transform builds the destination document for one article story.
func (a *Article) Transform(story sb.Story) (*Result, error) {
	if story.Slug == "" {
		return nil, errors.New("article has no slug")
	}
	title, _ := story.Content["title"].(string)
	if title == "" {
		return nil, fmt.Errorf("article %q has no title", story.Slug)
	}

	id, err := a.ids.StableID(a.Family(), story.Slug)
	if err != nil {
		return nil, fmt.Errorf("stable id for %q: %w", story.Slug, err)
	}

	var warnings []string
	rt := NewRichText()
	body, err := bodyBlocks(rt, story.Content["body"], &warnings)
	if err != nil {
		return nil, fmt.Errorf("article %q: %w", story.Slug, err)
	}

	doc := map[string]any{
		"_id":   id,
		"_type": "article",
		"title": title,
		"slug":  slugField(story.Slug),
		"body":  body,
	}
	if excerpt, ok := story.Content["teaser"].(string); ok && excerpt != "" {
		doc["excerpt"] = excerpt
	}
	if story.PublishedAt != "" {
		doc["publishedAt"] = story.PublishedAt
	}
	if len(story.TagList) > 0 {
		tags := make([]string, len(story.TagList))
		copy(tags, story.TagList)
		doc["tags"] = tags
	}

	imageURL, imageAlt := imageFromField(story.Content["image"])
	if imageAlt != "" {
		doc["imageAlt"] = imageAlt
	}

	return &Result{
		Doc:      doc,
		Warnings: warnings,
		Slug:     story.Slug,
		ImageURL: imageURL,
		ImageAlt: imageAlt,
	}, nil
}
