package download

import (
	"context"
	"fmt"
	"time"

	"storyblok-migrate/internal/sb"
	"storyblok-migrate/internal/snapshot"
)

// SourceAPI is the slice of the source client the downloader needs. All
// listing is single-page so that every page boundary below becomes a durable
// checkpoint.
type SourceAPI interface {
	ListStoriesPage(ctx context.Context, opt sb.StoryListOpts) (sb.StoriesPage, error)
	GetStoryWithContent(ctx context.Context, storyID int) (sb.Story, error)
	ListComponents(ctx context.Context) ([]sb.Component, error)
	ListAssetsPage(ctx context.Context, page, perPage int) (sb.AssetsPage, error)
	ListDatasources(ctx context.Context) ([]sb.Datasource, error)
	ListDatasourceEntriesPage(ctx context.Context, datasourceID, page, perPage int) (sb.EntriesPage, error)
	DownloadAssetBinary(ctx context.Context, srcURL string) ([]byte, error)
}

// Progress is one UI-facing progress tick.
type Progress struct {
	Resource snapshot.Resource
	Done     int
	Total    int
}

// ProgressFunc receives progress ticks. May be nil.
type ProgressFunc func(Progress)

// Downloader pulls source resources into the snapshot store, persisting a
// SyncStatus checkpoint after every page so a crash loses at most the page
// in flight.
type Downloader struct {
	src      SourceAPI
	store    *snapshot.Store
	perPage  int
	progress ProgressFunc
	listOpts sb.StoryListOpts
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithPerPage overrides the page size (default 25).
func WithPerPage(n int) Option { return func(d *Downloader) { d.perPage = n } }

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option { return func(d *Downloader) { d.progress = fn } }

// WithStoryFilters narrows the story listing (starts_with, content type,
// tag). The filters are recorded into the story SyncStatus so a resumed run
// can be checked against the original one.
func WithStoryFilters(opt sb.StoryListOpts) Option {
	return func(d *Downloader) { d.listOpts = opt }
}

// New creates a downloader over a source client and a snapshot store.
func New(src SourceAPI, store *snapshot.Store, opts ...Option) *Downloader {
	d := &Downloader{src: src, store: store, perPage: 25}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Run downloads the given resources in order. An error aborts the run; the
// checkpoints already written make the next run resume instead of restart.
func (d *Downloader) Run(ctx context.Context, resources []snapshot.Resource, mode snapshot.SyncMode) error {
	for _, res := range resources {
		var err error
		switch res {
		case snapshot.ResourceComponents:
			err = d.downloadComponents(ctx)
		case snapshot.ResourceStories:
			err = d.downloadStories(ctx, mode)
		case snapshot.ResourceAssets:
			err = d.downloadAssets(ctx, mode)
		case snapshot.ResourceDatasources:
			err = d.downloadDatasources(ctx)
		default:
			err = fmt.Errorf("unknown resource %q", res)
		}
		if err != nil {
			return fmt.Errorf("download %s: %w", res, err)
		}
	}
	return nil
}

func (d *Downloader) tick(res snapshot.Resource, done, total int) {
	if d.progress != nil {
		d.progress(Progress{Resource: res, Done: done, Total: total})
	}
}

// newStatus starts a fresh status record for one pass, carrying the
// completion flag forward: isComplete only ever flips true after a clean
// full pass, and an incremental pass on top of a complete snapshot keeps it.
func newStatus(res snapshot.Resource, mode snapshot.SyncMode, prev *snapshot.SyncStatus) *snapshot.SyncStatus {
	st := &snapshot.SyncStatus{
		Resource:        res,
		SyncMode:        mode,
		LastSyncStarted: time.Now().UTC(),
		DownloadedIDs:   make(snapshot.IDSet),
	}
	if prev != nil && mode == snapshot.SyncIncremental {
		st.IsComplete = prev.IsComplete
	}
	return st
}

// checkpoint stamps and persists the status. Called after every page.
func (d *Downloader) checkpoint(st *snapshot.SyncStatus) error {
	st.DownloadedItems = len(st.DownloadedIDs)
	st.LastUpdated = time.Now().UTC()
	return d.store.WriteStatus(st.Resource, st)
}

func (d *Downloader) complete(st *snapshot.SyncStatus, full bool) error {
	now := time.Now().UTC()
	st.LastSyncCompleted = &now
	if full {
		st.IsComplete = true
	}
	return d.checkpoint(st)
}
