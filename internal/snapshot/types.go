package snapshot

import (
	"encoding/json"
	"sort"
	"time"
)

// Resource identifies one downloadable resource family.
type Resource string

const (
	ResourceComponents  Resource = "components"
	ResourceStories     Resource = "stories"
	ResourceAssets      Resource = "assets"
	ResourceDatasources Resource = "datasources"
)

// Resources lists all resource families in download order.
var Resources = []Resource{ResourceComponents, ResourceStories, ResourceAssets, ResourceDatasources}

// SyncMode selects between a full pass and an incremental window.
type SyncMode string

const (
	SyncFull        SyncMode = "full"
	SyncIncremental SyncMode = "incremental"
)

// IDSet is a set of numeric ids that serializes as a sorted JSON array.
type IDSet map[int]bool

func (s IDSet) MarshalJSON() ([]byte, error) {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return json.Marshal(ids)
}

func (s *IDSet) UnmarshalJSON(b []byte) error {
	var ids []int
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	out := make(IDSet, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	*s = out
	return nil
}

// Add inserts an id, allocating the set on first use.
func (s *IDSet) Add(id int) {
	if *s == nil {
		*s = make(IDSet)
	}
	(*s)[id] = true
}

// SyncStats summarizes what an incremental pass changed.
type SyncStats struct {
	NewItems     int `json:"newItems"`
	UpdatedItems int `json:"updatedItems"`
	DeletedItems int `json:"deletedItems"`
}

// SyncStatus is the durable download progress record for one resource.
// DownloadedIDs is always a superset of what is persisted on disk for the
// resource; IsComplete flips true only after a clean full pass.
type SyncStatus struct {
	Resource          Resource          `json:"resource"`
	TotalItems        int               `json:"totalItems"`
	DownloadedItems   int               `json:"downloadedItems"`
	DownloadedIDs     IDSet             `json:"downloadedIds"`
	LastUpdated       time.Time         `json:"lastUpdated"`
	IsComplete        bool              `json:"isComplete"`
	LastSyncStarted   time.Time         `json:"lastSyncStarted"`
	LastSyncCompleted *time.Time        `json:"lastSyncCompleted,omitempty"`
	SyncMode          SyncMode          `json:"syncMode"`
	DeletedIDs        []int             `json:"deletedIds,omitempty"`
	SyncStats         *SyncStats        `json:"syncStats,omitempty"`
	Filters           map[string]string `json:"filters,omitempty"`
}
