package importer

import (
	"context"
	"sort"
	"time"

	"storyblok-migrate/internal/idmap"
	"storyblok-migrate/internal/plan"
	"storyblok-migrate/internal/snapshot"
	"storyblok-migrate/internal/transform"
)

// Pipeline runs the whole import side for all document families: read the
// snapshot, transform, classify, apply. It owns nothing the individual
// packages do not already own; it just strings them together.
type Pipeline struct {
	store *snapshot.Store
	ids   *idmap.Manager
	dest  DestinationAPI
	src   BinaryFetcher
}

// NewPipeline wires the import pipeline.
func NewPipeline(store *snapshot.Store, ids *idmap.Manager, dest DestinationAPI, src BinaryFetcher) *Pipeline {
	return &Pipeline{store: store, ids: ids, dest: dest, src: src}
}

// Run imports every registered document family and returns per-family
// results, keyed by family name.
func (p *Pipeline) Run(ctx context.Context, mode Mode) (map[string]*Result, error) {
	out := make(map[string]*Result)
	families := make([]string, 0)
	registry := transform.Registry(p.ids)
	for family := range registry {
		families = append(families, family)
	}
	sort.Strings(families)
	for _, family := range families {
		res, err := p.RunFamily(ctx, registry[family], mode)
		if err != nil {
			return out, err
		}
		out[family] = res
	}
	return out, nil
}

// RunFamily imports one document family. A record that fails to transform is
// recorded as an error item and the batch continues; only infrastructure
// failures (snapshot reads, status persistence) abort the run.
func (p *Pipeline) RunFamily(ctx context.Context, tr transform.DocumentTransformer, mode Mode) (*Result, error) {
	family := tr.Family()
	stories, err := p.store.ReadStoriesByContentType(family)
	if err != nil {
		return nil, err
	}
	prev, err := p.ids.LoadImportStatus(family)
	if err != nil {
		return nil, err
	}

	var items []Item
	var failed []ItemResult
	for _, story := range stories {
		r, err := tr.Transform(story)
		if err != nil {
			failed = append(failed, ItemResult{Slug: story.Slug, Operation: "error", Err: err})
			continue
		}
		items = append(items, Item{
			Result: r,
			Change: plan.Classify(plan.Input{
				Slug:      r.Slug,
				UpdatedAt: parseSourceTime(story.UpdatedAt),
				ImageURL:  r.ImageURL,
			}, prev),
		})
	}

	im := New(p.dest, p.src, p.ids, family)
	res, err := im.Apply(ctx, items, mode)
	if err != nil {
		return nil, err
	}
	res.Errors += len(failed)
	res.Items = append(res.Items, failed...)
	return res, nil
}

func parseSourceTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
