package cli

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/embedlib/embedlib/internal/branding"
	"github.com/embedlib/embedlib/internal/config"
	"github.com/embedlib/embedlib/internal/fetch"
	"github.com/embedlib/embedlib/internal/installer"
	"github.com/embedlib/embedlib/internal/registry"
	"github.com/embedlib/embedlib/internal/resolver"
	"github.com/embedlib/embedlib/internal/store"
	"github.com/embedlib/embedlib/internal/telemetry"
)

// services bundles the collaborators a command needs, built from the
// effective configuration.
type services struct {
	settings  config.Settings
	logger    *log.Logger
	fetcher   *fetch.Fetcher
	registry  *registry.Client
	store     *store.Store
	resolver  *resolver.Resolver
	installer *installer.Installer
}

func newServices(ctx context.Context, interactive bool) *services {
	settings := config.Current()
	logger := loggerFromContext(ctx)

	f := fetch.New(
		fetch.WithUserAgent(branding.CLIName()+"/"+buildVersion),
		fetch.WithMaxRetries(settings.MaxRetries),
		fetch.WithTimeout(settings.HTTPTimeout),
	)
	transport := fetch.NewCircuitBreakerFetcher(f)

	reg := registry.New(settings.RegistryURL, transport, registry.WithShowURL(branding.ShowURL()))
	st := store.New(libraryDir(), transport, store.WithLogger(logger))

	resolverOpts := []resolver.Option{
		resolver.WithLogger(logger),
		resolver.WithShowURL(reg.ShowURL),
	}
	if interactive {
		resolverOpts = append(resolverOpts, resolver.WithChooser(newChooser(os.Stdin, os.Stderr)))
	}
	res := resolver.New(reg, resolverOpts...)

	inst := installer.New(reg, st, res,
		installer.WithLogger(logger),
		installer.WithHooks(telemetry.Logger{Log: logger}),
	)

	return &services{
		settings:  settings,
		logger:    logger,
		fetcher:   f,
		registry:  reg,
		store:     st,
		resolver:  res,
		installer: inst,
	}
}

// Close releases the transport's background resources.
func (s *services) Close() {
	s.fetcher.Close()
}
