package plan

import (
	"sort"
	"time"

	"storyblok-migrate/internal/idmap"
)

// ChangeType classifies one record against the previous import.
type ChangeType string

const (
	New       ChangeType = "new"
	Updated   ChangeType = "updated"
	Unchanged ChangeType = "unchanged"
	Deleted   ChangeType = "deleted"
)

// Input is what classification needs from one current source record.
type Input struct {
	Slug      string
	UpdatedAt time.Time // zero when the source carries no timestamp
	ImageURL  string    // current source binary URL, "" when none
}

// Classify decides new/updated/unchanged for a record that exists in the
// current source set. Timestamp and image-URL checks are independent
// signals: an editor can swap an image without the source re-stamping
// updated_at, so both must be consulted.
func Classify(rec Input, prev *idmap.ImportStatus) ChangeType {
	if prev == nil || !prev.HasSlug(rec.Slug) {
		return New
	}
	if !rec.UpdatedAt.IsZero() && rec.UpdatedAt.After(prev.LastImportCompleted) {
		return Updated
	}
	if rec.ImageURL != prev.ImageURL(rec.Slug) {
		return Updated
	}
	return Unchanged
}

// Deletions returns the slugs imported last time that are absent from the
// current full source set, sorted for deterministic apply order.
func Deletions(prev *idmap.ImportStatus, current map[string]bool) []string {
	if prev == nil {
		return nil
	}
	var out []string
	for _, slug := range prev.ImportedSlugs {
		if !current[slug] {
			out = append(out, slug)
		}
	}
	sort.Strings(out)
	return out
}
