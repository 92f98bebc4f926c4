package idmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ImportStatus is the per-document-family counterpart of the download
// SyncStatus: import (writing the destination) and download (reading the
// source) are independently resumable, so each keeps its own record.
type ImportStatus struct {
	LastImportStarted   time.Time         `json:"lastImportStarted"`
	LastImportCompleted time.Time         `json:"lastImportCompleted"`
	ImportedSlugs       []string          `json:"importedSlugs"`
	ImportedImages      map[string]string `json:"importedImages,omitempty"`
	ImportedAssetIDs    map[string]string `json:"importedAssetIds,omitempty"`
}

// HasSlug reports whether slug was part of the last completed import.
func (s *ImportStatus) HasSlug(slug string) bool {
	if s == nil {
		return false
	}
	for _, v := range s.ImportedSlugs {
		if v == slug {
			return true
		}
	}
	return false
}

// ImageURL returns the source image URL recorded for slug at last import.
func (s *ImportStatus) ImageURL(slug string) string {
	if s == nil {
		return ""
	}
	return s.ImportedImages[slug]
}

// AssetID returns the destination asset document id uploaded for slug's
// image at last import. A document rewrite with an unchanged image URL
// re-attaches this id instead of re-uploading.
func (s *ImportStatus) AssetID(slug string) string {
	if s == nil {
		return ""
	}
	return s.ImportedAssetIDs[slug]
}

// LoadImportStatus reads the status for a family, or nil when none exists.
func (m *Manager) LoadImportStatus(family string) (*ImportStatus, error) {
	b, err := os.ReadFile(m.importStatusPath(family))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st ImportStatus
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("corrupt import status for %s: %w", family, err)
	}
	return &st, nil
}

// SaveImportStatus atomically replaces the status for a family. The importer
// calls this exactly once per run, after the apply loop, so partial progress
// never corrupts the persisted record.
func (m *Manager) SaveImportStatus(family string, st *ImportStatus) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	path := m.importStatusPath(family)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (m *Manager) importStatusPath(family string) string {
	return filepath.Join(m.dir, family+"-import-status.json")
}
