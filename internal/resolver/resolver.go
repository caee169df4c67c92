// Package resolver turns a dependency filter into exactly one registry
// library, asking the user to choose when the registry returns several
// matches and prompts are enabled.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/embedlib/embedlib/internal/deps"
	"github.com/embedlib/embedlib/internal/registry"
)

// ErrInvalidChoice is returned when a chooser picks an id outside the
// candidate set.
var ErrInvalidChoice = errors.New("chosen library is not one of the candidates")

// NotFoundError reports a filter with no registry matches.
type NotFoundError struct {
	Filter deps.Filter
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("library not found: %s", e.Filter)
}

// Searcher runs registry search queries.
type Searcher interface {
	Search(ctx context.Context, query string) (*registry.SearchResult, error)
}

// Chooser presents ambiguous matches and returns the id the user picked.
type Chooser interface {
	Choose(ctx context.Context, filter deps.Filter, candidates []registry.Library) (int, error)
}

// Options are the per-call settings of Resolve.
type Options struct {
	// Interactive allows the Chooser to be consulted on ambiguous matches.
	// When false the first match is taken.
	Interactive bool
	// Silent demotes progress messages to debug level.
	Silent bool
}

// Resolution is the outcome of a successful Resolve.
type Resolution struct {
	Library registry.Library
	// Candidates is the number of matches the registry reported.
	Candidates int
	// Automatic is set when the library was picked without asking.
	Automatic bool
}

// Resolver queries the registry for filters.
type Resolver struct {
	searcher Searcher
	chooser  Chooser
	logger   *log.Logger
	showURL  func(id int, name string) string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithChooser sets the interactive chooser.
func WithChooser(c Chooser) Option {
	return func(r *Resolver) {
		r.chooser = c
	}
}

// WithLogger sets the logger for progress and conflict messages.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithShowURL sets how library page links are rendered in messages.
func WithShowURL(fn func(id int, name string) string) Option {
	return func(r *Resolver) {
		r.showURL = fn
	}
}

// New creates a Resolver backed by s.
func New(s Searcher, opts ...Option) *Resolver {
	r := &Resolver{
		searcher: s,
		logger:   log.New(io.Discard),
		showURL: func(id int, name string) string {
			return fmt.Sprintf("id=%d (%s)", id, name)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds the single registry library matching filter.
func (r *Resolver) Resolve(ctx context.Context, filter deps.Filter, opts Options) (*Resolution, error) {
	say := r.logger.Info
	if opts.Silent {
		say = r.logger.Debug
	}

	say(fmt.Sprintf("Looking for %s library in registry", filter.Name))

	result, err := r.searcher.Search(ctx, BuildQuery(filter))
	if err != nil {
		return nil, err
	}

	var res *Resolution
	switch {
	case result.Total == 1 && len(result.Items) > 0:
		res = &Resolution{Library: result.Items[0], Candidates: 1}
	case result.Total > 1 && len(result.Items) > 0:
		res, err = r.disambiguate(ctx, filter, result, opts)
		if err != nil {
			return nil, err
		}
	default:
		return nil, &NotFoundError{Filter: filter}
	}

	say("Found: " + r.showURL(res.Library.ID, res.Library.Name))
	return res, nil
}

func (r *Resolver) disambiguate(ctx context.Context, filter deps.Filter, result *registry.SearchResult, opts Options) (*Resolution, error) {
	r.logger.Warn(fmt.Sprintf("Conflict: More than one library has been found by request %s", filter),
		"matches", result.Total)

	if !opts.Interactive || r.chooser == nil {
		for _, item := range result.Items {
			r.logger.Info("candidate", "id", item.ID, "name", item.Name, "authors", strings.Join(item.Authors, ", "))
		}
		r.logger.Info("Automatically chose the first available library")
		return &Resolution{Library: result.Items[0], Candidates: result.Total, Automatic: true}, nil
	}

	id, err := r.chooser.Choose(ctx, filter, result.Items)
	if err != nil {
		return nil, fmt.Errorf("choosing library for %s: %w", filter.Name, err)
	}
	for _, item := range result.Items {
		if item.ID == id {
			return &Resolution{Library: item, Candidates: result.Total}, nil
		}
	}
	return nil, fmt.Errorf("library id %d: %w", id, ErrInvalidChoice)
}

// BuildQuery renders a filter as space-separated field:"value" terms.
// Plural field names are singularized and every value is its own term.
func BuildQuery(filter deps.Filter) string {
	var terms []string
	add := func(field string, values []string) {
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				terms = append(terms, field+`:"`+v+`"`)
			}
		}
	}

	add("name", strings.Split(filter.Name, ","))
	add("author", filter.Authors)
	add("framework", filter.Frameworks)
	add("platform", filter.Platforms)
	return strings.Join(terms, " ")
}
