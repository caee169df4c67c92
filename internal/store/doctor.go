package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/embedlib/embedlib/internal/manifest"
)

// Report summarizes a store health check.
type Report struct {
	Problems int
	Fixed    int
}

// Check validates the store layout and prints one line per finding to w.
// With fix set, the store directory is created, a stale lock removed, and
// directories without an installed manifest deleted.
func (s *Store) Check(w io.Writer, fix bool) (*Report, error) {
	r := &Report{}
	fmt.Fprintln(w, "Library directory check:")

	info, err := os.Stat(s.root)
	switch {
	case os.IsNotExist(err):
		r.Problems++
		fmt.Fprintf(w, "  [MISS] %s does not exist\n", s.root)
		if !fix {
			return r, nil
		}
		if err := os.MkdirAll(s.root, 0755); err != nil {
			return r, fmt.Errorf("creating %s: %w", s.root, err)
		}
		r.Fixed++
		fmt.Fprintf(w, "  [FIX ] Created %s\n", s.root)
		return r, nil
	case err != nil:
		return r, err
	case !info.IsDir():
		r.Problems++
		fmt.Fprintf(w, "  [FAIL] %s is not a directory\n", s.root)
		return r, nil
	}
	fmt.Fprintf(w, "  [ OK ] %s exists\n", s.root)

	lockPath := filepath.Join(s.root, LockFileName)
	if _, err := os.Stat(lockPath); err == nil {
		r.Problems++
		fmt.Fprintf(w, "  [WARN] lock file %s present; remove it if no install is running\n", lockPath)
		if fix && os.Remove(lockPath) == nil {
			r.Fixed++
			fmt.Fprintf(w, "  [FIX ] Removed %s\n", lockPath)
		}
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return r, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(s.root, e.Name())
		if strings.HasPrefix(e.Name(), ".install-") {
			r.Problems++
			fmt.Fprintf(w, "  [WARN] leftover staging directory %s\n", e.Name())
			if fix && os.RemoveAll(dir) == nil {
				r.Fixed++
				fmt.Fprintf(w, "  [FIX ] Removed %s\n", e.Name())
			}
			continue
		}
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		s.checkLibrary(w, r, dir, fix)
	}

	if fix && r.Fixed > 0 {
		s.invalidateIndex()
	}
	return r, nil
}

func (s *Store) checkLibrary(w io.Writer, r *Report, dir string, fix bool) {
	name := filepath.Base(dir)
	if _, err := manifest.LoadInstalled(dir); err != nil {
		r.Problems++
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", name, err)
		if fix && os.RemoveAll(dir) == nil {
			r.Fixed++
			fmt.Fprintf(w, "  [FIX ] Removed %s\n", name)
		}
		return
	}

	tree, err := s.TreeAt(dir)
	if err != nil {
		r.Problems++
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", name, err)
		return
	}
	var missing []string
	for _, child := range tree.Children {
		if !child.Installed {
			missing = append(missing, child.Name)
		}
	}
	if len(missing) > 0 {
		r.Problems++
		fmt.Fprintf(w, "  [WARN] %s is missing dependencies: %s\n", name, strings.Join(missing, ", "))
		return
	}
	fmt.Fprintf(w, "  [ OK ] %s %s\n", name, tree.Version)
}
