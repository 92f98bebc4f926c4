package transform

// Portable-text shapes emitted for the destination CMS. Lists arrive as flat
// block sequences carrying listItem+level rather than nested trees; the
// rich-text transformer bridges that impedance mismatch explicitly.

// Block is one destination text block.
type Block struct {
	Key      string    `json:"_key"`
	Type     string    `json:"_type"` // always "block"
	Style    string    `json:"style"` // normal|h2|h3|h4
	ListItem string    `json:"listItem,omitempty"`
	Level    int       `json:"level,omitempty"`
	MarkDefs []MarkDef `json:"markDefs"`
	Children []Span    `json:"children"`
}

// Span is one text run inside a block.
type Span struct {
	Key   string   `json:"_key"`
	Type  string   `json:"_type"` // always "span"
	Text  string   `json:"text"`
	Marks []string `json:"marks"`
}

// MarkDef is a block-scoped mark definition. Only links exist today.
type MarkDef struct {
	Key  string `json:"_key"`
	Type string `json:"_type"` // "link"
	Href string `json:"href"`
}

const (
	StyleNormal = "normal"
	StyleH2     = "h2"
	StyleH3     = "h3"
	StyleH4     = "h4"

	ListBullet = "bullet"
	ListNumber = "number"

	MarkStrong = "strong"
	MarkEm     = "em"
)
