// Package store is the on-disk package store. Every library lives in its
// own directory under the store root next to an installed manifest
// (.library.json) that records where it came from.
package store

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/embedlib/embedlib/internal/deps"
	"github.com/embedlib/embedlib/internal/fetch"
	"github.com/embedlib/embedlib/internal/manifest"
	"github.com/embedlib/embedlib/internal/versions"
)

// ErrNotInstalled is returned by Remove for unknown libraries.
var ErrNotInstalled = errors.New("library is not installed")

// ErrChecksumMismatch is returned when a download does not match the
// SHA-256 the registry published for it.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// maxArchiveSize caps a single library download.
const maxArchiveSize = 512 << 20

// Request describes one physical install.
//
// Registry installs set ID and Version; URL is then only the download
// location. Direct installs leave ID zero and URL is recorded in the
// installed manifest.
type Request struct {
	Name        string
	ID          int
	Version     string
	URL         string
	Requirement string
	SHA256      string // hex digest of the archive, verified when set
}

func (r Request) fromRegistry() bool {
	return r.ID != 0
}

// Store manages the library directory.
type Store struct {
	root    string
	fetcher fetch.Interface
	logger  *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for validation warnings and progress.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store rooted at root. f downloads remote archives; it may
// be nil when only local sources are installed.
func New(root string, f fetch.Interface, opts ...Option) *Store {
	s := &Store{
		root:    root,
		fetcher: f,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// InstalledDir returns the directory of an installed library matching
// name, requirement and url. When url is set the library is identified by
// its source alone, since the manifest inside an archive rarely carries
// the name it was requested under. Otherwise name is matched, either as
// "id=N" or case-insensitively. An empty requirement matches any version.
func (s *Store) InstalledDir(name, requirement, url string) (string, bool) {
	libs, err := s.List()
	if err != nil {
		s.logger.Debug("reading store index", "err", err)
		return "", false
	}

	id, byID := deps.ParseID(name)
	for _, inst := range libs {
		lib := inst.Library
		switch {
		case url != "":
			if lib.URL != url {
				continue
			}
		case byID:
			if lib.ID != id {
				continue
			}
		case !strings.EqualFold(lib.Name, name):
			continue
		}
		if !versions.Satisfies(lib.Version, requirement) {
			continue
		}
		return inst.Dir, true
	}
	return "", false
}

// LoadManifest reads the installed manifest of dir.
func (s *Store) LoadManifest(dir string) (*manifest.Library, error) {
	return manifest.LoadInstalled(dir)
}

// List returns every installed library ordered by directory name.
func (s *Store) List() ([]Installed, error) {
	return s.loadIndex()
}

// Remove deletes the installed library matching name ("id=N" accepted).
func (s *Store) Remove(name string) (string, error) {
	dir, ok := s.InstalledDir(name, "", "")
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrNotInstalled)
	}
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("removing %s: %w", dir, err)
	}
	s.invalidateIndex()
	return dir, nil
}

// Install fetches, unpacks and records one library, returning its
// directory. Installing a library that is already present is a no-op.
func (s *Store) Install(ctx context.Context, req Request) (string, error) {
	if dir, ok := s.existing(req); ok {
		return dir, nil
	}

	if err := os.MkdirAll(s.root, 0755); err != nil {
		return "", fmt.Errorf("creating library directory: %w", err)
	}
	staging, err := os.MkdirTemp(s.root, ".install-")
	if err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	unpacked := filepath.Join(staging, "src")
	if err := s.unpack(ctx, req.URL, req.SHA256, staging, unpacked); err != nil {
		return "", err
	}
	content, err := unwrapSingleDir(unpacked)
	if err != nil {
		return "", err
	}

	lib, err := s.sourceManifest(content, req)
	if err != nil {
		return "", err
	}
	if err := manifest.WriteInstalled(content, lib); err != nil {
		return "", err
	}

	target, err := s.placement(lib)
	if err != nil {
		return "", err
	}
	if err := os.Rename(content, target); err != nil {
		return "", fmt.Errorf("moving %s into place: %w", lib.Name, err)
	}
	s.invalidateIndex()

	s.logger.Debug("installed", "name", lib.Name, "version", lib.Version, "dir", target)
	return target, nil
}

func (s *Store) existing(req Request) (string, bool) {
	if req.fromRegistry() {
		return s.InstalledDir(deps.IDName(req.ID), req.Version, "")
	}
	if req.URL == "" {
		return "", false
	}
	name := req.Name
	if name == "" {
		name = deps.NameFromSource(req.URL)
	}
	return s.InstalledDir(name, req.Requirement, req.URL)
}

// unpack materializes source into dest. Local directories are copied;
// archives are extracted.
func (s *Store) unpack(ctx context.Context, source, checksum, staging, dest string) error {
	if source == "" {
		return errors.New("install request has no source")
	}

	if local, ok := localPath(source); ok {
		info, err := os.Stat(local)
		if err != nil {
			return fmt.Errorf("reading %s: %w", source, err)
		}
		if info.IsDir() {
			if err := copyDir(local, dest); err != nil {
				return fmt.Errorf("copying %s: %w", local, err)
			}
			return nil
		}
		return extractArchive(local, dest)
	}

	archive, err := s.download(ctx, source, staging, checksum)
	if err != nil {
		return err
	}
	return extractArchive(archive, dest)
}

func (s *Store) download(ctx context.Context, source, staging, checksum string) (string, error) {
	if s.fetcher == nil {
		return "", fmt.Errorf("no fetcher configured for %s", source)
	}

	artifact, err := s.fetcher.Fetch(ctx, source)
	if err != nil {
		return "", err
	}
	defer artifact.Body.Close()

	path := filepath.Join(staging, "archive")
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating download file: %w", err)
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, h), io.LimitReader(artifact.Body, maxArchiveSize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", &fetch.TransportError{URL: source, Err: err}
	}
	if n > maxArchiveSize {
		return "", fmt.Errorf("%s: archive exceeds %d bytes", source, maxArchiveSize)
	}
	if checksum != "" {
		if actual := hex.EncodeToString(h.Sum(nil)); !strings.EqualFold(actual, checksum) {
			return "", fmt.Errorf("%s: %w: expected %s, got %s", source, ErrChecksumMismatch, checksum, actual)
		}
	}
	return path, nil
}

// sourceManifest reads the library's own manifest, or synthesizes one from
// the request when the archive has none, and stamps the install metadata.
func (s *Store) sourceManifest(dir string, req Request) (*manifest.Library, error) {
	var lib *manifest.Library

	path, err := manifest.Find(dir)
	switch {
	case err == nil:
		s.validate(path)
		lib, err = manifest.ParseFile(path)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, manifest.ErrNoManifest):
		lib = &manifest.Library{}
	default:
		return nil, err
	}

	if lib.Name == "" {
		lib.Name = req.Name
	}
	if lib.Name == "" || deps.IsSource(lib.Name) {
		lib.Name = deps.NameFromSource(req.URL)
	}
	if strings.Trim(lib.Name, ". ") == "" {
		return nil, fmt.Errorf("cannot determine library name for %s", req.URL)
	}
	if req.fromRegistry() {
		lib.ID = req.ID
		lib.URL = ""
		if req.Version != "" {
			lib.Version = req.Version
		}
	} else {
		lib.URL = req.URL
	}
	lib.Requirements = req.Requirement
	return lib, nil
}

func (s *Store) validate(path string) {
	result, err := manifest.ValidateFile(path)
	if err != nil {
		s.logger.Warn("could not validate manifest", "path", path, "err", err)
		return
	}
	if !result.Valid {
		s.logger.Warn("manifest does not match schema", "path", path, "issues", result.Summary())
	}
}

// placement picks the target directory. A library gets its own name
// unless that directory holds another version or a copy from another
// source. Registry installs then move to name@version and direct installs
// to name@src-<hash of the URL>, so neither replaces the other.
func (s *Store) placement(lib *manifest.Library) (string, error) {
	target := filepath.Join(s.root, dirName(lib.Name))
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return target, nil
	}

	current, err := manifest.LoadInstalled(target)
	if err == nil && (!sameSource(current, lib) || current.Version != lib.Version) {
		suffix := "@" + lib.Version
		if lib.URL != "" {
			suffix = "@src-" + sourceHash(lib.URL)
		}
		target = filepath.Join(s.root, dirName(lib.Name+suffix))
	}
	if err := os.RemoveAll(target); err != nil {
		return "", fmt.Errorf("replacing %s: %w", target, err)
	}
	return target, nil
}

func sameSource(a, b *manifest.Library) bool {
	if a.URL != "" || b.URL != "" {
		return a.URL == b.URL
	}
	return a.ID == b.ID
}

func sourceHash(source string) string {
	sum := sha1.Sum([]byte(source))
	return hex.EncodeToString(sum[:])[:8]
}

func (s *Store) invalidateIndex() {
	os.Remove(indexPath(s.root))
}

// localPath reports whether source names a file on this machine.
func localPath(source string) (string, bool) {
	if strings.HasPrefix(source, "file://") {
		u, err := url.Parse(source)
		if err == nil && u.Path != "" {
			return filepath.FromSlash(u.Path), true
		}
		return strings.TrimPrefix(source, "file://"), true
	}
	if strings.Contains(source, "://") {
		return "", false
	}
	return source, true
}

// dirName turns a library name into a safe directory name.
func dirName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
}
