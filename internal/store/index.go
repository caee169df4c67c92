package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/embedlib/embedlib/internal/manifest"
)

// Installed is one library directory in the store.
type Installed struct {
	Dir     string
	Library *manifest.Library
}

// cachedIndex holds the installed manifests along with the store
// modification time used for invalidation.
type cachedIndex struct {
	Entries  []indexEntry `json:"entries"`
	RootMod  int64        `json:"root_mod"` // unix nanoseconds
	CachedAt time.Time    `json:"cached_at"`
}

type indexEntry struct {
	Dir     string            `json:"dir"` // relative to the store root
	Library *manifest.Library `json:"library"`
}

// indexPath is a sibling of the store root so writing it does not touch
// the root's own modification time.
func indexPath(root string) string {
	return filepath.Clean(root) + ".index.json"
}

// loadIndex returns the installed libraries, using the cache file when it
// is still valid and rebuilding it otherwise.
func (s *Store) loadIndex() ([]Installed, error) {
	path := indexPath(s.root)
	cached, err := readIndex(path)
	if err == nil && cached.RootMod == latestMtime(s.root) {
		return s.fromEntries(cached.Entries), nil
	}

	entries, err := s.scan()
	if err != nil {
		return nil, err
	}

	// Best effort; listing still works without the cache.
	writeIndex(path, entries, latestMtime(s.root))

	return s.fromEntries(entries), nil
}

func (s *Store) fromEntries(entries []indexEntry) []Installed {
	out := make([]Installed, 0, len(entries))
	for _, e := range entries {
		out = append(out, Installed{Dir: filepath.Join(s.root, e.Dir), Library: e.Library})
	}
	return out
}

// scan reads the installed manifest of every library directory.
func (s *Store) scan() ([]indexEntry, error) {
	dirEntries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []indexEntry
	for _, de := range dirEntries {
		if !de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		lib, err := manifest.LoadInstalled(filepath.Join(s.root, de.Name()))
		if err != nil {
			s.logger.Debug("skipping directory without installed manifest", "dir", de.Name(), "err", err)
			continue
		}
		entries = append(entries, indexEntry{Dir: de.Name(), Library: lib})
	}
	return entries, nil
}

func readIndex(path string) (*cachedIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var idx cachedIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

// latestMtime returns the latest modification time across the store root
// and its immediate subdirectories. Installs and removals rename or delete
// directories in the root, so this catches them without a full walk.
func latestMtime(root string) int64 {
	info, err := os.Stat(root)
	if err != nil {
		return 0
	}
	latest := info.ModTime().UnixNano()

	entries, err := os.ReadDir(root)
	if err != nil {
		return latest
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if fi, err := entry.Info(); err == nil {
			if t := fi.ModTime().UnixNano(); t > latest {
				latest = t
			}
		}
	}
	return latest
}

func writeIndex(path string, entries []indexEntry, rootMod int64) {
	idx := cachedIndex{
		Entries:  entries,
		RootMod:  rootMod,
		CachedAt: time.Now(),
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return
	}

	os.MkdirAll(filepath.Dir(path), 0755)
	os.WriteFile(path, data, 0644)
}
