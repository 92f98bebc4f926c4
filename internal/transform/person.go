package transform

import (
	"errors"
	"fmt"

	"storyblok-migrate/internal/idmap"
	"storyblok-migrate/internal/sb"
)

// Person maps source "person" stories to destination person documents.
type Person struct {
	ids *idmap.Manager
}

// NewPerson creates the person transformer.
func NewPerson(ids *idmap.Manager) *Person { return &Person{ids: ids} }

func (p *Person) Family() string { return "person" }

// Transform builds the destination document for one person story.
func (p *Person) Transform(story sb.Story) (*Result, error) {
	if story.Slug == "" {
		return nil, errors.New("person has no slug")
	}
	name, _ := story.Content["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("person %q has no name", story.Slug)
	}

	id, err := p.ids.StableID(p.Family(), story.Slug)
	if err != nil {
		return nil, fmt.Errorf("stable id for %q: %w", story.Slug, err)
	}

	var warnings []string
	doc := map[string]any{
		"_id":   id,
		"_type": "person",
		"name":  name,
		"slug":  slugField(story.Slug),
	}
	if role, ok := story.Content["role"].(string); ok && role != "" {
		doc["role"] = role
	}

	if bio := story.Content["bio"]; bio != nil {
		rt := NewRichText()
		node, err := ParseNode(bio)
		if err != nil {
			return nil, fmt.Errorf("person %q bio: %w", story.Slug, err)
		}
		doc["bio"] = rt.Transform(node)
		warnings = append(warnings, rt.Warnings()...)
	}

	imageURL, imageAlt := imageFromField(story.Content["portrait"])
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
