// Package installer installs a library and, depth first, everything its
// manifest declares as a dependency.
package installer

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/embedlib/embedlib/internal/deps"
	"github.com/embedlib/embedlib/internal/fetch"
	"github.com/embedlib/embedlib/internal/manifest"
	"github.com/embedlib/embedlib/internal/registry"
	"github.com/embedlib/embedlib/internal/resolver"
	"github.com/embedlib/embedlib/internal/store"
	"github.com/embedlib/embedlib/internal/telemetry"
	"github.com/embedlib/embedlib/internal/versions"
)

// UndefinedVersionError reports a requirement no published version meets.
type UndefinedVersionError struct {
	Requirement string
	Systype     string
}

func (e *UndefinedVersionError) Error() string {
	return fmt.Sprintf("could not find a version that matches %q (systype %s)", e.Requirement, e.Systype)
}

// Registry is the part of the registry API the installer needs.
type Registry interface {
	Versions(ctx context.Context, id int) ([]versions.Record, error)
	Download(ctx context.Context, id int, version string) (*registry.Download, error)
}

// Store is the package store.
type Store interface {
	InstalledDir(name, requirement, url string) (string, bool)
	Install(ctx context.Context, req store.Request) (string, error)
	LoadManifest(dir string) (*manifest.Library, error)
}

// Resolver maps a dependency filter to one registry library.
type Resolver interface {
	Resolve(ctx context.Context, filter deps.Filter, opts resolver.Options) (*resolver.Resolution, error)
}

// Options are the per-call settings of Install. All but Requirement are
// passed on to dependency installs.
type Options struct {
	Requirement  string
	Silent       bool
	TriggerEvent bool
	Interactive  bool
}

func (o Options) resolverOptions() resolver.Options {
	return resolver.Options{Interactive: o.Interactive, Silent: o.Silent}
}

// Installer orchestrates recursive installs.
type Installer struct {
	registry Registry
	store    Store
	resolver Resolver
	hooks    telemetry.Hooks
	logger   *log.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(in *Installer) {
		if l != nil {
			in.logger = l
		}
	}
}

// WithHooks sets the hooks notified when TriggerEvent is set.
func WithHooks(h telemetry.Hooks) Option {
	return func(in *Installer) {
		if h != nil {
			in.hooks = h
		}
	}
}

// New creates an Installer.
func New(reg Registry, st Store, res Resolver, opts ...Option) *Installer {
	in := &Installer{
		registry: reg,
		store:    st,
		resolver: res,
		hooks:    telemetry.Noop{},
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// visitKey identifies one install target within a run.
type visitKey struct {
	name        string
	requirement string
	url         string
}

// Install installs name and its dependencies and returns the library
// directory. name is a registry name, "name@requirement", "id=N",
// "name=<url>" or a URL. Any failure aborts the whole chain; libraries
// installed before the failure stay on disk.
func (in *Installer) Install(ctx context.Context, name string, opts Options) (string, error) {
	return in.install(ctx, name, opts, make(map[visitKey]string))
}

func (in *Installer) install(ctx context.Context, name string, opts Options, visited map[visitKey]string) (string, error) {
	say := in.logger.Info
	if opts.Silent {
		say = in.logger.Debug
	}

	req := deps.ParseRequest(name, opts.Requirement)
	canonical, displayName := req.Name, req.Name
	var id int
	if req.URL == "" {
		var err error
		id, displayName, err = in.packageID(ctx, req, opts)
		if err != nil {
			return "", err
		}
		canonical = deps.IDName(id)
	}

	key := visitKey{name: canonical, requirement: req.Requirement, url: req.URL}
	if dir, ok := visited[key]; ok {
		return dir, nil
	}

	dir, installed := in.store.InstalledDir(canonical, req.Requirement, req.URL)
	if installed {
		say(fmt.Sprintf("%s is already installed", labelOf(displayName, canonical)), "dir", dir)
	} else {
		var err error
		if req.URL != "" {
			dir, err = in.installDirect(ctx, req, opts)
		} else {
			dir, err = in.installFromRegistry(ctx, id, displayName, req, opts)
		}
		if err != nil {
			return "", err
		}
	}
	visited[key] = dir

	if installed {
		return dir, nil
	}

	lib, err := in.store.LoadManifest(dir)
	if err != nil {
		return "", fmt.Errorf("reading installed manifest: %w", err)
	}
	if !lib.HasDependencies() {
		return dir, nil
	}

	say("Installing dependencies", "library", lib.Name)
	child := opts
	child.Requirement = ""
	for _, filter := range lib.Dependencies.Filters() {
		if err := in.installDependency(ctx, filter, child, visited); err != nil {
			return "", fmt.Errorf("installing dependency %s of %s: %w", filter.Name, lib.Name, err)
		}
	}
	return dir, nil
}

func (in *Installer) installDependency(ctx context.Context, filter deps.Filter, opts Options, visited map[visitKey]string) error {
	if filter.IsDirect() {
		_, err := in.install(ctx, filter.DirectSpec(), opts, visited)
		return err
	}

	res, err := in.resolver.Resolve(ctx, filter, opts.resolverOptions())
	if err != nil {
		return err
	}
	opts.Requirement = filter.Version
	_, err = in.install(ctx, deps.IDName(res.Library.ID), opts, visited)
	return err
}

// packageID returns the registry id for a name without a URL: taken from
// "id=N", reused from an installed manifest, or resolved via the registry.
func (in *Installer) packageID(ctx context.Context, req deps.Request, opts Options) (int, string, error) {
	if id, ok := deps.ParseID(req.Name); ok {
		return id, "", nil
	}

	if dir, ok := in.store.InstalledDir(req.Name, req.Requirement, ""); ok {
		if lib, err := in.store.LoadManifest(dir); err == nil && lib.ID != 0 {
			return lib.ID, lib.Name, nil
		}
	}

	res, err := in.resolver.Resolve(ctx, deps.Filter{Name: req.Name, Version: req.Requirement}, opts.resolverOptions())
	if err != nil {
		return 0, "", err
	}
	return res.Library.ID, res.Library.Name, nil
}

func (in *Installer) installDirect(ctx context.Context, req deps.Request, opts Options) (string, error) {
	start := time.Now()
	dir, err := in.store.Install(ctx, store.Request{
		Name:        req.Name,
		URL:         req.URL,
		Requirement: req.Requirement,
	})
	if err != nil {
		return "", fmt.Errorf("installing %s: %w", req.URL, err)
	}

	if opts.TriggerEvent {
		e := telemetry.NewEvent(req.Name)
		e.URL = req.URL
		e.Dir = dir
		e.Duration = time.Since(start)
		in.hooks.OnInstall(ctx, e)
	}
	return dir, nil
}

func (in *Installer) installFromRegistry(ctx context.Context, id int, name string, req deps.Request, opts Options) (string, error) {
	start := time.Now()
	label := labelOf(name, deps.IDName(id))

	records, err := in.registry.Versions(ctx, id)
	if err != nil {
		return "", fmt.Errorf("listing versions of %s: %w", label, err)
	}
	rec := versions.Select(records, req.Requirement)
	if rec == nil {
		requirement := req.Requirement
		if requirement == "" {
			requirement = "latest"
		}
		return "", &UndefinedVersionError{Requirement: requirement, Systype: systype()}
	}

	dl, err := in.registry.Download(ctx, id, rec.Version)
	if err != nil {
		return "", fmt.Errorf("getting download for %s@%s: %w", label, rec.Version, err)
	}

	if opts.Silent {
		in.logger.Debug("Installing", "library", label, "version", rec.Version)
	} else {
		in.logger.Info(fmt.Sprintf("Installing %s @ %s", label, rec.Version))
	}

	sreq := store.Request{
		Name:        name,
		ID:          id,
		Version:     rec.Version,
		URL:         secureURL(dl.URL),
		Requirement: req.Requirement,
		SHA256:      dl.SHA256,
	}
	dir, err := in.store.Install(ctx, sreq)
	if err != nil && sreq.URL != dl.URL && fetch.IsTransport(err) && ctx.Err() == nil {
		in.logger.Warn("Secure download failed, retrying over plain http", "url", dl.URL, "err", err)
		sreq.URL = dl.URL
		dir, err = in.store.Install(ctx, sreq)
	}
	if err != nil {
		return "", fmt.Errorf("installing %s@%s: %w", label, rec.Version, err)
	}

	if opts.TriggerEvent {
		e := telemetry.NewEvent(name)
		e.LibID = id
		e.Version = rec.Version
		e.URL = sreq.URL
		e.Dir = dir
		e.Duration = time.Since(start)
		in.hooks.OnInstall(ctx, e)
	}
	return dir, nil
}

// secureURL upgrades a plain http URL to https.
func secureURL(u string) string {
	if rest, ok := strings.CutPrefix(u, "http://"); ok {
		return "https://" + rest
	}
	return u
}

func systype() string {
	return runtime.GOOS + "_" + runtime.GOARCH
}

func labelOf(name, canonical string) string {
	if name == "" {
		return canonical
	}
	return name
}
