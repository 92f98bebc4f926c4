package transform

import (
	"strings"
	"testing"

	"storyblok-migrate/internal/idmap"
	"storyblok-migrate/internal/sb"
)

func richtextValue(textStr string) map[string]any {
	return map[string]any{
		"type": "doc",
		"content": []any{
			map[string]any{"type": "paragraph", "content": []any{
				map[string]any{"type": "text", "text": textStr},
			}},
		},
	}
}

func articleStory() sb.Story {
	return sb.Story{
		ID:          1,
		Slug:        "hello-world",
		FullSlug:    "blog/hello-world",
		PublishedAt: "2024-03-01T10:00:00Z",
		TagList:     []string{"news"},
		Content: map[string]any{
			"component": "article",
			"title":     "Hello World",
			"teaser":    "A greeting.",
			"image":     map[string]any{"filename": "https://a.storyblok.com/f/1/hero.jpg", "alt": "hero"},
			"body": []any{
				map[string]any{"component": "richtext", "text": richtextValue("Body text")},
				map[string]any{"component": "text", "text": "Plain tail"},
				map[string]any{"component": "video", "url": "https://v/1"},
				map[string]any{"component": "weird_widget"},
			},
		},
	}
}

func TestArticleTransform(t *testing.T) {
	ids := idmap.New(t.TempDir())
	res, err := NewArticle(ids).Transform(articleStory())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if res.Slug != "hello-world" {
		t.Fatalf("unexpected slug: %q", res.Slug)
	}
	if res.Doc["title"] != "Hello World" || res.Doc["_type"] != "article" {
		t.Fatalf("unexpected doc: %+v", res.Doc)
	}
	if res.Doc["excerpt"] != "A greeting." || res.Doc["publishedAt"] != "2024-03-01T10:00:00Z" {
		t.Fatalf("metadata not mapped: %+v", res.Doc)
	}
	body := res.Doc["body"].([]Block)
	if len(body) != 2 {
		t.Fatalf("want 2 body blocks (richtext + plain), got %d", len(body))
	}
	if body[0].Children[0].Text != "Body text" || body[1].Children[0].Text != "Plain tail" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if res.ImageURL != "https://a.storyblok.com/f/1/hero.jpg" || res.ImageAlt != "hero" {
		t.Fatalf("image not surfaced: url=%q alt=%q", res.ImageURL, res.ImageAlt)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("want warnings for video and weird_widget, got %v", res.Warnings)
	}
	for _, w := range res.Warnings {
		if !strings.Contains(w, "video") && !strings.Contains(w, "weird_widget") {
			t.Fatalf("warning does not name what was skipped: %q", w)
		}
	}
}

func TestArticleStableIDAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	ids := idmap.New(dir)
	first, err := NewArticle(ids).Transform(articleStory())
	if err != nil {
		t.Fatalf("first transform: %v", err)
	}
	// Second "full" download: different source id, same slug.
	st := articleStory()
	st.ID = 999
	ids.ClearCache()
	second, err := NewArticle(idmap.New(dir)).Transform(st)
	if err != nil {
		t.Fatalf("second transform: %v", err)
	}
	if first.Doc["_id"] != second.Doc["_id"] {
		t.Fatalf("same slug resolved to different ids: %v vs %v", first.Doc["_id"], second.Doc["_id"])
	}
}

func TestArticleMissingRequiredFields(t *testing.T) {
	ids := idmap.New(t.TempDir())
	a := NewArticle(ids)

	st := articleStory()
	st.Slug = ""
	if _, err := a.Transform(st); err == nil {
		t.Fatal("expected error for missing slug")
	}

	st = articleStory()
	delete(st.Content, "title")
	if _, err := a.Transform(st); err == nil {
		t.Fatal("expected error for missing title")
	}
}

func TestArticleBareStringImage(t *testing.T) {
	ids := idmap.New(t.TempDir())
	st := articleStory()
	st.Content["image"] = "https://a.storyblok.com/f/1/plain.jpg"
	res, err := NewArticle(ids).Transform(st)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if res.ImageURL != "https://a.storyblok.com/f/1/plain.jpg" || res.ImageAlt != "" {
		t.Fatalf("bare string image not handled: %+v", res)
	}
}

func TestPersonTransform(t *testing.T) {
	ids := idmap.New(t.TempDir())
	st := sb.Story{
		ID:   2,
		Slug: "jane-doe",
		Content: map[string]any{
			"component": "person",
			"name":      "Jane Doe",
			"role":      "Engineer",
			"bio":       richtextValue("Jane builds things."),
			"portrait":  map[string]any{"filename": "https://a.storyblok.com/f/1/jane.jpg", "alt": "Jane"},
		},
	}
	res, err := NewPerson(ids).Transform(st)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if res.Doc["name"] != "Jane Doe" || res.Doc["role"] != "Engineer" {
		t.Fatalf("unexpected doc: %+v", res.Doc)
	}
	bio := res.Doc["bio"].([]Block)
	if len(bio) != 1 || bio[0].Children[0].Text != "Jane builds things." {
		t.Fatalf("bio not transformed: %+v", bio)
	}
	if res.ImageURL != "https://a.storyblok.com/f/1/jane.jpg" {
		t.Fatalf("portrait not surfaced: %q", res.ImageURL)
	}
}

func TestPersonMissingName(t *testing.T) {
	ids := idmap.New(t.TempDir())
	st := sb.Story{ID: 3, Slug: "x", Content: map[string]any{"component": "person"}}
	if _, err := NewPerson(ids).Transform(st); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestRegistry(t *testing.T) {
	reg := Registry(idmap.New(t.TempDir()))
	if _, ok := reg["article"]; !ok {
		t.Fatal("registry missing article")
	}
	if _, ok := reg["person"]; !ok {
		t.Fatal("registry missing person")
	}
	for family, tr := range reg {
		if tr.Family() != family {
			t.Fatalf("family key %q does not match transformer %q", family, tr.Family())
		}
	}
}
