package download

import (
	"context"
	"fmt"

	"storyblok-migrate/internal/sb"
	"storyblok-migrate/internal/snapshot"
)

// datasourceRecord is the persisted shape: the datasource plus all its
// entries, flattened from however many pages the source returned.
type datasourceRecord struct {
	Datasource sb.Datasource        `json:"datasource"`
	Entries    []sb.DatasourceEntry `json:"entries"`
}

// downloadDatasources pulls every datasource with its entries, checkpointing
// after each datasource.
func (d *Downloader) downloadDatasources(ctx context.Context) error {
	prev, err := d.store.ReadStatus(snapshot.ResourceDatasources)
	if err != nil {
		return err
	}
	st := newStatus(snapshot.ResourceDatasources, snapshot.SyncFull, prev)

	dss, err := d.src.ListDatasources(ctx)
	if err != nil {
		return err
	}
	st.TotalItems = len(dss)

	for _, ds := range dss {
		var entries []sb.DatasourceEntry
		for page := 1; ; page++ {
			pg, err := d.src.ListDatasourceEntriesPage(ctx, ds.ID, page, d.perPage)
			if err != nil {
				return err
			}
			entries = append(entries, pg.Entries...)
			if len(pg.Entries) == 0 || page*d.perPage >= pg.Total {
				break
			}
		}
		rec := datasourceRecord{Datasource: ds, Entries: entries}
		if err := d.store.WriteResourceFile(snapshot.ResourceDatasources, fmt.Sprintf("%d.json", ds.ID), rec); err != nil {
			return err
		}
		st.DownloadedIDs.Add(ds.ID)
		d.tick(snapshot.ResourceDatasources, len(st.DownloadedIDs), st.TotalItems)
		if err := d.checkpoint(st); err != nil {
			return err
		}
	}

	if err := d.store.WriteIndex(snapshot.ResourceDatasources, dss); err != nil {
		return err
	}
	return d.complete(st, true)
}
