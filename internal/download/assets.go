package download

import (
	"context"
	"time"

	"storyblok-migrate/internal/sb"
	"storyblok-migrate/internal/snapshot"
)

// downloadAssets pulls asset metadata page by page. Metadata is always
// rewritten; the binary payload is fetched only when none is on disk yet or
// the source record changed since the last completed pass.
func (d *Downloader) downloadAssets(ctx context.Context, mode snapshot.SyncMode) error {
	prev, err := d.store.ReadStatus(snapshot.ResourceAssets)
	if err != nil {
		return err
	}
	st := newStatus(snapshot.ResourceAssets, mode, prev)
	if mode == snapshot.SyncIncremental && prev != nil {
		for id := range prev.DownloadedIDs {
			st.DownloadedIDs[id] = true
		}
	}

	var index []sb.Asset
	for page := 1; ; page++ {
		pg, err := d.src.ListAssetsPage(ctx, page, d.perPage)
		if err != nil {
			return err
		}
		st.TotalItems = pg.Total

		for _, a := range pg.Assets {
			if err := d.store.WriteAssetMetadata(a); err != nil {
				return err
			}
			if need, err := d.needBinary(a, prev); err != nil {
				return err
			} else if need {
				data, err := d.src.DownloadAssetBinary(ctx, a.Filename)
				if err != nil {
					return err
				}
				if err := d.store.WriteAssetBinary(a.ID, a.Filename, data); err != nil {
					return err
				}
			}
			st.DownloadedIDs.Add(a.ID)
			index = append(index, a)
			d.tick(snapshot.ResourceAssets, len(st.DownloadedIDs), pg.Total)
		}

		if err := d.checkpoint(st); err != nil {
			return err
		}
		if len(pg.Assets) == 0 || page*d.perPage >= pg.Total {
			break
		}
	}

	if err := d.store.WriteIndex(snapshot.ResourceAssets, index); err != nil {
		return err
	}
	return d.complete(st, mode == snapshot.SyncFull)
}

func (d *Downloader) needBinary(a sb.Asset, prev *snapshot.SyncStatus) (bool, error) {
	exists, err := d.store.AssetBinaryExists(a.ID)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}
	if prev == nil || prev.LastSyncCompleted == nil || a.UpdatedAt == "" {
		return false, nil
	}
	updated, err := time.Parse(time.RFC3339, a.UpdatedAt)
	if err != nil {
		return false, nil
	}
	return updated.After(*prev.LastSyncCompleted), nil
}
