package snapshot

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"storyblok-migrate/internal/sb"
)

// uncategorizedBucket files stories whose content blob declares no component
// type.
const uncategorizedBucket = "_uncategorized"

// Store is the filesystem-shaped persistence layer for downloaded snapshots.
// Layout under root:
//
//	<resource>/_status.json
//	<resource>/_index.json
//	stories/<content-type>/<id>.json
//	assets/<id>.json
//	assets/binaries/<id>-<filename>
//	components/<id>.json, datasources/<id>.json
//
// Writes are idempotent overwrites; status writes go through a temp file and
// rename so a crash never leaves a torn status.
type Store struct {
	root string
}

// NewStore opens (and creates if needed) the migration directory.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("migration dir empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create migration dir: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the migration directory.
func (s *Store) Root() string { return s.root }

// IDMapDir returns the directory holding identifier maps and import statuses.
func (s *Store) IDMapDir() string { return filepath.Join(s.root, "id-maps") }

// WriteResourceFile persists one JSON record under the resource directory.
func (s *Store) WriteResourceFile(res Resource, filename string, payload any) error {
	dir := filepath.Join(s.root, string(res))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, filename), payload)
}

// WriteIndex persists the per-resource index listing all current records.
func (s *Store) WriteIndex(res Resource, payload any) error {
	return s.WriteResourceFile(res, "_index.json", payload)
}

// ReadIndex loads the per-resource index into out. Missing index is not an
// error; ok reports whether one existed.
func (s *Store) ReadIndex(res Resource, out any) (bool, error) {
	b, err := os.ReadFile(filepath.Join(s.root, string(res), "_index.json"))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, out)
}

// WriteStoryByContentType files one story under its content-type folder.
// A story whose type changed between syncs is moved first: any copy under a
// different folder is renamed into the new folder before the fresh content
// lands, so a crash in between never leaves the id filed twice.
func (s *Store) WriteStoryByContentType(story sb.Story) error {
	ct := story.ContentType()
	if ct == "" {
		ct = uncategorizedBucket
	}
	ct = sanitizeSegment(ct)
	dir := filepath.Join(s.root, string(ResourceStories), ct)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(dir, storyFilename(story.ID))
	if err := s.moveStoryInto(story.ID, ct, dst); err != nil {
		return err
	}
	return writeJSON(dst, story)
}

// RemoveStoryByID deletes a story file wherever its content-type folder
// currently is.
func (s *Store) RemoveStoryByID(id int) error {
	return s.removeStoryExcept(id, "")
}

// moveStoryInto renames every copy of the story filed under a folder other
// than keep onto dst. Rename over an existing dst is atomic, so at no point
// does the id exist in two folders at once.
func (s *Store) moveStoryInto(id int, keep, dst string) error {
	base := filepath.Join(s.root, string(ResourceStories))
	entries, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	name := storyFilename(id)
	for _, e := range entries {
		if !e.IsDir() || e.Name() == keep {
			continue
		}
		src := filepath.Join(base, e.Name(), name)
		if _, err := os.Stat(src); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if err := os.Rename(src, dst); err != nil {
			return err
		}
	}
	return nil
}

// removeStoryExcept removes every copy of the story except one under the
// keep folder ("" keeps nothing).
func (s *Store) removeStoryExcept(id int, keep string) error {
	base := filepath.Join(s.root, string(ResourceStories))
	entries, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	name := storyFilename(id)
	for _, e := range entries {
		if !e.IsDir() || e.Name() == keep {
			continue
		}
		path := filepath.Join(base, e.Name(), name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// DownloadedStoryIDs derives the set of persisted story ids by scanning the
// stories tree. Resume mode uses this rather than trusting the status file
// alone.
func (s *Store) DownloadedStoryIDs() (IDSet, error) {
	out := make(IDSet)
	base := filepath.Join(s.root, string(ResourceStories))
	entries, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(base, e.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			name := f.Name()
			if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "_") {
				continue
			}
			id, err := strconv.Atoi(strings.TrimSuffix(name, ".json"))
			if err != nil {
				continue
			}
			out[id] = true
		}
	}
	return out, nil
}

// ReadStoriesByContentType loads every persisted story filed under the given
// content-type folder. A folder that does not exist yields an empty slice.
func (s *Store) ReadStoriesByContentType(contentType string) ([]sb.Story, error) {
	dir := filepath.Join(s.root, string(ResourceStories), sanitizeSegment(contentType))
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []sb.Story
	for _, f := range files {
		name := f.Name()
		if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "_") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var story sb.Story
		if err := json.Unmarshal(b, &story); err != nil {
			return nil, fmt.Errorf("corrupt story file %s: %w", name, err)
		}
		out = append(out, story)
	}
	return out, nil
}

// WriteAssetMetadata persists one asset metadata record.
func (s *Store) WriteAssetMetadata(a sb.Asset) error {
	return s.WriteResourceFile(ResourceAssets, fmt.Sprintf("%d.json", a.ID), a)
}

// WriteAssetBinary persists the asset payload keyed by id.
func (s *Store) WriteAssetBinary(id int, srcURL string, data []byte) error {
	dir := filepath.Join(s.root, string(ResourceAssets), "binaries")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("%d-%s", id, BinaryFilename(srcURL, id))
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

// AssetBinaryExists reports whether a binary for the id is already on disk.
func (s *Store) AssetBinaryExists(id int) (bool, error) {
	dir := filepath.Join(s.root, string(ResourceAssets), "binaries")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	prefix := fmt.Sprintf("%d-", id)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			return true, nil
		}
	}
	return false, nil
}

// ReadStatus loads the sync status for a resource, or nil when none exists.
func (s *Store) ReadStatus(res Resource) (*SyncStatus, error) {
	b, err := os.ReadFile(s.statusPath(res))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st SyncStatus
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("corrupt status for %s: %w", res, err)
	}
	return &st, nil
}

// WriteStatus persists the sync status atomically.
func (s *Store) WriteStatus(res Resource, st *SyncStatus) error {
	if err := os.MkdirAll(filepath.Join(s.root, string(res)), 0o755); err != nil {
		return err
	}
	return writeJSON(s.statusPath(res), st)
}

func (s *Store) statusPath(res Resource) string {
	return filepath.Join(s.root, string(res), "_status.json")
}

// BinaryFilename derives a disk filename from the trailing path segment of
// the source URL, falling back to a synthesized name when the URL yields
// none.
func BinaryFilename(srcURL string, id int) string {
	fallback := fmt.Sprintf("asset-%d", id)
	u, err := url.Parse(srcURL)
	if err != nil {
		return fallback
	}
	seg := path.Base(u.Path)
	if seg == "" || seg == "." || seg == "/" {
		return fallback
	}
	return sanitizeSegment(seg)
}

// sanitizeSegment keeps folder/file names safe on any filesystem.
func sanitizeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, s)
	if s == "" {
		return "-"
	}
	return s
}

func storyFilename(id int) string { return fmt.Sprintf("%d.json", id) }

// writeJSON marshals payload and writes it via temp file + rename.
func writeJSON(path string, payload any) error {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
