package download

import (
	"context"
	"fmt"

	"storyblok-migrate/internal/snapshot"
)

// downloadComponents pulls all component definitions. The upstream endpoint
// is unpaginated, so this is always a full pass with a single checkpoint.
func (d *Downloader) downloadComponents(ctx context.Context) error {
	prev, err := d.store.ReadStatus(snapshot.ResourceComponents)
	if err != nil {
		return err
	}
	st := newStatus(snapshot.ResourceComponents, snapshot.SyncFull, prev)

	comps, err := d.src.ListComponents(ctx)
	if err != nil {
		return err
	}
	st.TotalItems = len(comps)
	for _, c := range comps {
		if err := d.store.WriteResourceFile(snapshot.ResourceComponents, fmt.Sprintf("%d.json", c.ID), c); err != nil {
			return err
		}
		st.DownloadedIDs.Add(c.ID)
		d.tick(snapshot.ResourceComponents, len(st.DownloadedIDs), st.TotalItems)
	}
	if err := d.store.WriteIndex(snapshot.ResourceComponents, comps); err != nil {
		return err
	}
	return d.complete(st, true)
}
