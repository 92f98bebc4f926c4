package transform

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Node is one source rich-text AST node. The source format is a tolerant
// tree of typed nodes; anything with an unrecognized type falls through the
// switch below and becomes a warning, never a failure.
type Node struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Content []Node         `json:"content,omitempty"`
}

// Mark is one inline formatting mark on a text node.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// ParseNode decodes a raw rich-text value (as found inside a story content
// blob) into a Node tree.
func ParseNode(raw any) (Node, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return Node{}, fmt.Errorf("rich text not serializable: %w", err)
	}
	var n Node
	if err := json.Unmarshal(b, &n); err != nil {
		return Node{}, fmt.Errorf("rich text shape invalid: %w", err)
	}
	return n, nil
}

// RichText converts a source rich-text tree into a flat destination block
// sequence. Each instance owns a key counter scoped to one document's
// transform, so the same input always yields identical keys and parallel
// documents can never collide. Create one per document.
type RichText struct {
	counter  int
	warnings []string
}

// NewRichText returns a transformer with a fresh key counter.
func NewRichText() *RichText { return &RichText{} }

// Warnings returns everything skipped so far, in order.
func (t *RichText) Warnings() []string { return t.warnings }

func (t *RichText) warnf(format string, args ...any) {
	t.warnings = append(t.warnings, fmt.Sprintf(format, args...))
}

func (t *RichText) nextKey() string {
	k := fmt.Sprintf("k%d", t.counter)
	t.counter++
	return k
}

// Transform flattens a rich-text document into destination blocks.
func (t *RichText) Transform(doc Node) []Block {
	var out []Block
	for _, child := range doc.Content {
		out = append(out, t.transformNode(child)...)
	}
	return out
}

func (t *RichText) transformNode(n Node) []Block {
	switch n.Type {
	case "paragraph":
		return []Block{t.textBlock(n.Content, StyleNormal, "", 0)}
	case "heading":
		return []Block{t.textBlock(n.Content, headingStyle(n.Attrs), "", 0)}
	case "bullet_list":
		return t.transformList(n, ListBullet, 1)
	case "ordered_list":
		return t.transformList(n, ListNumber, 1)
	default:
		t.warnf("skipped unknown rich text node %q", n.Type)
		return nil
	}
}

// transformList flattens a (possibly nested) list. Every list item becomes a
// block tagged with the list kind and its nesting depth; nested lists inside
// an item continue one level deeper.
func (t *RichText) transformList(list Node, kind string, level int) []Block {
	var out []Block
	for _, item := range list.Content {
		if item.Type != "list_item" {
			t.warnf("skipped unknown list child %q", item.Type)
			continue
		}
		for _, child := range item.Content {
			switch child.Type {
			case "paragraph":
				out = append(out, t.textBlock(child.Content, StyleNormal, kind, level))
			case "bullet_list":
				out = append(out, t.transformList(child, ListBullet, level+1)...)
			case "ordered_list":
				out = append(out, t.transformList(child, ListNumber, level+1)...)
			default:
				t.warnf("skipped unknown list item child %q", child.Type)
			}
		}
	}
	return out
}

// textBlock builds one block from inline content. Key order matters for
// determinism: block first, then mark defs and spans in source order.
func (t *RichText) textBlock(inline []Node, style, listItem string, level int) Block {
	b := Block{
		Key:      t.nextKey(),
		Type:     "block",
		Style:    style,
		ListItem: listItem,
		Level:    level,
		MarkDefs: []MarkDef{},
		Children: []Span{},
	}
	for _, n := range inline {
		if n.Type != "text" {
			t.warnf("skipped unknown inline node %q", n.Type)
			continue
		}
		span := Span{Key: t.nextKey(), Type: "span", Text: n.Text, Marks: []string{}}
		for _, mk := range n.Marks {
			switch mk.Type {
			case "bold":
				span.Marks = appendMark(span.Marks, MarkStrong)
			case "italic", "underline":
				// The destination has no underline; it degrades to em.
				span.Marks = appendMark(span.Marks, MarkEm)
			case "link":
				def := MarkDef{Key: t.nextKey(), Type: "link", Href: stringAttr(mk.Attrs, "href")}
				b.MarkDefs = append(b.MarkDefs, def)
				span.Marks = appendMark(span.Marks, def.Key)
			default:
				t.warnf("skipped unknown mark %q", mk.Type)
			}
		}
		b.Children = append(b.Children, span)
	}
	return b
}

// PlainBlocks converts plain text into a block sequence, one block per
// non-empty line, sharing the document's key counter.
func (t *RichText) PlainBlocks(text string) []Block {
	var out []Block
	for _, line := range splitLines(text) {
		out = append(out, Block{
			Key:      t.nextKey(),
			Type:     "block",
			Style:    StyleNormal,
			MarkDefs: []MarkDef{},
			Children: []Span{{Key: t.nextKey(), Type: "span", Text: line, Marks: []string{}}},
		})
	}
	return out
}

func headingStyle(attrs map[string]any) string {
	level := 2
	if v, ok := attrs["level"].(float64); ok {
		level = int(v)
	}
	switch {
	case level <= 2:
		return StyleH2
	case level == 3:
		return StyleH3
	default:
		return StyleH4
	}
}

func appendMark(marks []string, m string) []string {
	for _, v := range marks {
		if v == m {
			return marks
		}
	}
	return append(marks, m)
}

func stringAttr(attrs map[string]any, key string) string {
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
