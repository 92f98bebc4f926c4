package transform

import (
	"fmt"

	"storyblok-migrate/internal/idmap"
	"storyblok-migrate/internal/sb"
)

// Result is the outcome of transforming one source record. It is a pure
// function of (story, identifier map state): no network side effects. The
// image URL rides separately from the document body because uploading the
// binary is the importer's job, not the transformer's.
type Result struct {
	Doc      map[string]any
	Warnings []string
	Slug     string
	ImageURL string
	ImageAlt string
}

// DocumentTransformer maps one source document family to its destination
// shape. A returned error covers only that record; callers record it and
// continue with the batch.
type DocumentTransformer interface {
	Family() string
	Transform(story sb.Story) (*Result, error)
}

// imageFromField reads the source image field, which is either a bare URL
// string or an asset object with filename/alt.
func imageFromField(v any) (url, alt string) {
	switch img := v.(type) {
	case string:
		return img, ""
	case map[string]any:
		u, _ := img["filename"].(string)
		a, _ := img["alt"].(string)
		return u, a
	}
	return "", ""
}

// bodyBlocks dispatches the sub-blocks of a body field by their declared
// component type. Anything without a destination equivalent becomes a
// warning naming what was dropped, never a silent omission.
func bodyBlocks(rt *RichText, body any, warnings *[]string) ([]Block, error) {
	items, ok := body.([]any)
	if !ok {
		if body == nil {
			return []Block{}, nil
		}
		return nil, fmt.Errorf("body is not a block list")
	}
	blocks := []Block{}
	for _, item := range items {
		blockMap, ok := item.(map[string]any)
		if !ok {
			*warnings = append(*warnings, "skipped body entry with no component tag")
			continue
		}
		component, _ := blockMap["component"].(string)
		switch component {
		case "richtext":
			node, err := ParseNode(blockMap["text"])
			if err != nil {
				return nil, fmt.Errorf("richtext block: %w", err)
			}
			blocks = append(blocks, rt.Transform(node)...)
		case "text":
			text, _ := blockMap["text"].(string)
			blocks = append(blocks, rt.PlainBlocks(text)...)
		case "video":
			*warnings = append(*warnings, "skipped embedded video block: no destination equivalent")
		case "person_ref":
			*warnings = append(*warnings, "skipped inline person reference: no destination equivalent")
		default:
			*warnings = append(*warnings, fmt.Sprintf("skipped unrecognized body component %q", component))
		}
	}
	*warnings = append(*warnings, rt.Warnings()...)
	return blocks, nil
}

// slugField renders a slug the way the destination schema expects it.
func slugField(slug string) map[string]any {
	return map[string]any{"_type": "slug", "current": slug}
}

// Registry returns all document transformers keyed by source content type.
func Registry(ids *idmap.Manager) map[string]DocumentTransformer {
	return map[string]DocumentTransformer{
		"article": NewArticle(ids),
		"person":  NewPerson(ids),
	}
}
