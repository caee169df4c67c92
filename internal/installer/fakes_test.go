package installer

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/embedlib/embedlib/internal/deps"
	"github.com/embedlib/embedlib/internal/fetch"
	"github.com/embedlib/embedlib/internal/manifest"
	"github.com/embedlib/embedlib/internal/registry"
	"github.com/embedlib/embedlib/internal/resolver"
	"github.com/embedlib/embedlib/internal/store"
	"github.com/embedlib/embedlib/internal/telemetry"
	"github.com/embedlib/embedlib/internal/versions"
)

// pkg is a library the fake world can serve.
type pkg struct {
	id       int
	name     string
	versions []versions.Record
	deps     any // dependency declarations, as decoded from a manifest
	failURL  bool
}

// world is a fake registry and resolver sharing one package table.
type world struct {
	pkgs         map[int]*pkg
	resolveCalls []deps.Filter
	resolveOpts  []resolver.Options
	versionErr   map[int]error
}

func newWorld(pkgs ...*pkg) *world {
	w := &world{pkgs: make(map[int]*pkg), versionErr: make(map[int]error)}
	for _, p := range pkgs {
		w.pkgs[p.id] = p
	}
	return w
}

func (w *world) Versions(ctx context.Context, id int) ([]versions.Record, error) {
	if err := w.versionErr[id]; err != nil {
		return nil, err
	}
	p, ok := w.pkgs[id]
	if !ok {
		return nil, fetch.ErrNotFound
	}
	return p.versions, nil
}

func (w *world) Download(ctx context.Context, id int, version string) (*registry.Download, error) {
	p, ok := w.pkgs[id]
	if !ok {
		return nil, fetch.ErrNotFound
	}
	return &registry.Download{URL: fmt.Sprintf("http://dl.example.com/%s-%s.tar.gz", p.name, version), Version: version}, nil
}

func (w *world) Resolve(ctx context.Context, filter deps.Filter, opts resolver.Options) (*resolver.Resolution, error) {
	w.resolveCalls = append(w.resolveCalls, filter)
	w.resolveOpts = append(w.resolveOpts, opts)
	for _, p := range w.pkgs {
		if strings.EqualFold(p.name, filter.Name) {
			return &resolver.Resolution{Library: registry.Library{ID: p.id, Name: p.name}, Candidates: 1}, nil
		}
	}
	return nil, &resolver.NotFoundError{Filter: filter}
}

// fakeStore keeps installed manifests in memory keyed by directory.
type fakeStore struct {
	world     *world
	libs      map[string]*manifest.Library
	order     []string
	installs  []store.Request
	loads     map[string]int
	failHTTPS bool
	failAll   error
	direct    map[string]*manifest.Library // manifests served for direct URLs
	hidden    map[int]bool                 // ids InstalledDir never reports
}

func newFakeStore(w *world) *fakeStore {
	return &fakeStore{
		world:  w,
		libs:   make(map[string]*manifest.Library),
		loads:  make(map[string]int),
		direct: make(map[string]*manifest.Library),
		hidden: make(map[int]bool),
	}
}

func (s *fakeStore) put(lib *manifest.Library) string {
	dir := "/lib/" + lib.Name
	if _, taken := s.libs[dir]; taken {
		dir += "@" + lib.Version
	}
	s.libs[dir] = lib
	s.order = append(s.order, dir)
	return dir
}

func (s *fakeStore) InstalledDir(name, requirement, url string) (string, bool) {
	id, byID := deps.ParseID(name)
	for _, dir := range s.order {
		lib := s.libs[dir]
		if s.hidden[lib.ID] {
			continue
		}
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
		return dir, true
	}
	return "", false
}

func (s *fakeStore) Install(ctx context.Context, req store.Request) (string, error) {
	s.installs = append(s.installs, req)
	if s.failAll != nil {
		return "", s.failAll
	}
	if s.failHTTPS && strings.HasPrefix(req.URL, "https://") {
		return "", &fetch.TransportError{URL: req.URL, Err: errors.New("tls handshake timeout")}
	}

	if req.ID == 0 {
		lib, ok := s.direct[req.URL]
		if !ok {
			return "", &fetch.TransportError{URL: req.URL, Err: fetch.ErrNotFound}
		}
		installed := *lib
		installed.URL = req.URL
		return s.put(&installed), nil
	}

	p, ok := s.world.pkgs[req.ID]
	if !ok {
		return "", fmt.Errorf("unknown id %d", req.ID)
	}
	if p.failURL {
		return "", &fetch.TransportError{URL: req.URL, Err: fetch.ErrUpstreamDown}
	}
	return s.put(&manifest.Library{
		ID:           p.id,
		Name:         p.name,
		Version:      req.Version,
		Requirements: req.Requirement,
		Dependencies: deps.NewDeclarations(p.deps),
	}), nil
}

func (s *fakeStore) LoadManifest(dir string) (*manifest.Library, error) {
	s.loads[dir]++
	lib, ok := s.libs[dir]
	if !ok {
		return nil, fmt.Errorf("%s: no manifest", dir)
	}
	return lib, nil
}

func (s *fakeStore) installedNames() []string {
	var names []string
	for _, dir := range s.order {
		names = append(names, path.Base(dir))
	}
	return names
}

type eventRecorder struct {
	events []telemetry.Event
}

func (r *eventRecorder) OnInstall(_ context.Context, e telemetry.Event) {
	r.events = append(r.events, e)
}

func rec(version, date string) versions.Record {
	return versions.Record{Version: version, Date: date}
}
