package download

import (
	"context"
	"sort"

	"storyblok-migrate/internal/infra/logx"
	"storyblok-migrate/internal/sb"
	"storyblok-migrate/internal/snapshot"
)

// sourceTimeLayout is the timestamp format the listing endpoint accepts for
// the updated_at_gte window.
const sourceTimeLayout = "2006-01-02 15:04:05"

// downloadStories runs the two-phase story download: list one page, then
// fetch full content per story and file it under its content type. The
// status checkpoint after every page makes an interrupted run resume from
// the stories already on disk instead of restarting.
func (d *Downloader) downloadStories(ctx context.Context, mode snapshot.SyncMode) error {
	prev, err := d.store.ReadStatus(snapshot.ResourceStories)
	if err != nil {
		return err
	}

	opt := d.listOpts
	if mode == snapshot.SyncIncremental {
		if prev == nil || prev.LastSyncCompleted == nil {
			// Nothing to window against: the first pass is always full.
			mode = snapshot.SyncFull
		} else {
			opt.UpdatedAtGTE = prev.LastSyncCompleted.UTC().Format(sourceTimeLayout)
		}
	}

	st := newStatus(snapshot.ResourceStories, mode, prev)
	st.Filters = d.listOpts.Filters()

	resume := false
	if mode == snapshot.SyncIncremental {
		// Unchanged stories stay downloaded; the window only lists changes.
		for id := range prev.DownloadedIDs {
			st.DownloadedIDs[id] = true
		}
	} else {
		if prev != nil && !prev.IsComplete {
			if filtersEqual(prev.Filters, st.Filters) {
				resume = true
			} else {
				logx.WithFields(logx.LevelWarn, "story filters changed since interrupted run, restarting", map[string]any{
					"previous": prev.Filters,
					"current":  st.Filters,
				})
			}
		}
		// Every story already on disk must be eligible for the deletion
		// sweep below, or a story deleted at the source would survive a
		// full re-sync. Unfiltered runs trust the files on disk over the
		// status record alone; filtered runs only track the filtered
		// subset, so they seed from the previous status instead.
		if len(st.Filters) == 0 {
			seed, err := d.store.DownloadedStoryIDs()
			if err != nil {
				return err
			}
			for id := range seed {
				st.DownloadedIDs[id] = true
			}
		} else if prev != nil && filtersEqual(prev.Filters, st.Filters) {
			for id := range prev.DownloadedIDs {
				st.DownloadedIDs[id] = true
			}
		}
	}

	var stats snapshot.SyncStats
	current := make(snapshot.IDSet)
	var index []sb.Story

	for page := 1; ; page++ {
		opt.Page = page
		opt.PerPage = d.perPage
		pg, err := d.src.ListStoriesPage(ctx, opt)
		if err != nil {
			return err
		}
		st.TotalItems = pg.Total

		for _, story := range pg.Stories {
			if story.IsFolder {
				continue
			}
			current.Add(story.ID)
			if mode == snapshot.SyncFull {
				index = append(index, story)
			}
			if resume && st.DownloadedIDs[story.ID] {
				d.tick(snapshot.ResourceStories, len(st.DownloadedIDs), pg.Total)
				continue
			}
			full, err := d.src.GetStoryWithContent(ctx, story.ID)
			if err != nil {
				return err
			}
			if err := d.store.WriteStoryByContentType(full); err != nil {
				return err
			}
			if st.DownloadedIDs[story.ID] {
				stats.UpdatedItems++
			} else {
				stats.NewItems++
			}
			st.DownloadedIDs.Add(story.ID)
			d.tick(snapshot.ResourceStories, len(st.DownloadedIDs), pg.Total)
		}

		if err := d.checkpoint(st); err != nil {
			return err
		}
		if len(pg.Stories) == 0 || page*d.perPage >= pg.Total {
			break
		}
	}

	// Deletion detection needs the complete current id set. The full pass
	// already listed everything; an incremental window did not, so list
	// again without the window (ids only, no content fetches).
	if mode == snapshot.SyncIncremental {
		listOpt := d.listOpts
		for page := 1; ; page++ {
			listOpt.Page = page
			listOpt.PerPage = d.perPage
			pg, err := d.src.ListStoriesPage(ctx, listOpt)
			if err != nil {
				return err
			}
			for _, story := range pg.Stories {
				if story.IsFolder {
					continue
				}
				current.Add(story.ID)
				index = append(index, story)
			}
			if len(pg.Stories) == 0 || page*d.perPage >= pg.Total {
				break
			}
		}
	}

	for id := range st.DownloadedIDs {
		if current[id] {
			continue
		}
		if err := d.store.RemoveStoryByID(id); err != nil {
			return err
		}
		delete(st.DownloadedIDs, id)
		st.DeletedIDs = append(st.DeletedIDs, id)
		stats.DeletedItems++
	}
	sort.Ints(st.DeletedIDs)
	if mode == snapshot.SyncIncremental {
		st.SyncStats = &stats
	}

	if err := d.store.WriteIndex(snapshot.ResourceStories, index); err != nil {
		return err
	}
	return d.complete(st, mode == snapshot.SyncFull)
}

func filtersEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
