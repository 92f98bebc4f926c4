package idmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Manager hands out stable destination identifiers for source slugs, one map
// file per document family. A slug, once mapped, keeps its identifier for
// the lifetime of the map file; entries are never deleted, even when the
// source slug disappears. That keeps create-or-replace imports pointed at
// the same destination record across runs.
type Manager struct {
	dir string

	mu    sync.Mutex
	cache map[string]map[string]string // family -> slug -> identifier
}

// New creates a manager over the given id-maps directory.
func New(dir string) *Manager {
	return &Manager{dir: dir, cache: make(map[string]map[string]string)}
}

// StableID returns the identifier for slug within family. A brand-new slug
// gets a freshly generated identifier that is persisted before this returns,
// so there is no lazy write-back to race against.
func (m *Manager) StableID(family, slug string) (string, error) {
	if family == "" || slug == "" {
		return "", errors.New("family and slug required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	table, err := m.loadLocked(family)
	if err != nil {
		return "", err
	}
	if id, ok := table[slug]; ok {
		return id, nil
	}
	id := uuid.NewString()
	table[slug] = id
	if err := m.saveLocked(family, table); err != nil {
		delete(table, slug)
		return "", err
	}
	return id, nil
}

// Lookup returns the mapped identifier without creating one.
func (m *Manager) Lookup(family, slug string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table, err := m.loadLocked(family)
	if err != nil {
		return "", false, err
	}
	id, ok := table[slug]
	return id, ok, nil
}

// ClearCache drops the in-process cache so externally edited map files get
// picked up. Exists for tests and long-lived dashboard processes.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	m.cache = make(map[string]map[string]string)
	m.mu.Unlock()
}

func (m *Manager) loadLocked(family string) (map[string]string, error) {
	if table, ok := m.cache[family]; ok {
		return table, nil
	}
	table := make(map[string]string)
	b, err := os.ReadFile(m.mapPath(family))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(b, &table); err != nil {
			return nil, fmt.Errorf("corrupt id map for %s: %w", family, err)
		}
	}
	m.cache[family] = table
	return table, nil
}

func (m *Manager) saveLocked(family string, table map[string]string) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return err
	}
	path := m.mapPath(family)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (m *Manager) mapPath(family string) string {
	return filepath.Join(m.dir, family+".json")
}
