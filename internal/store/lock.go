package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// LockFileName is the advisory lock held in the store root while an
// install or uninstall runs.
const LockFileName = ".embedlib.lock"

// ErrLocked is returned when another process holds the store lock.
var ErrLocked = errors.New("library directory is locked by another process")

// Lock is a held store lock.
type Lock struct {
	path string
}

// Lock takes the advisory store lock. Release it when done.
func (s *Store) Lock() (*Lock, error) {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return nil, fmt.Errorf("creating library directory: %w", err)
	}

	path := filepath.Join(s.root, LockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}
	if err != nil {
		return nil, fmt.Errorf("creating lock file: %w", err)
	}
	_, werr := f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing lock file: %w", werr)
	}
	return &Lock{path: path}, nil
}

// Release removes the lock file.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}
