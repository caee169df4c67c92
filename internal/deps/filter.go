package deps

import (
	"encoding/json"
	"strings"
)

// Filter is the canonical form of one dependency declaration. It doubles as
// the search filter handed to the registry resolver.
type Filter struct {
	Name       string   `json:"name" yaml:"name"`
	Version    string   `json:"version,omitempty" yaml:"version,omitempty"`
	Authors    []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Frameworks []string `json:"frameworks,omitempty" yaml:"frameworks,omitempty"`
	Platforms  []string `json:"platforms,omitempty" yaml:"platforms,omitempty"`
}

// IsDirect reports whether the version is a path or URL pin rather than a
// requirement, e.g. "https://host/lib.zip" or "../forks/lib".
func (f Filter) IsDirect() bool {
	return strings.ContainsAny(f.Version, `\/`)
}

// DirectSpec returns the "name=version" form used to install a pinned dependency.
func (f Filter) DirectSpec() string {
	return f.Name + "=" + f.Version
}

// String renders the filter as compact JSON for diagnostics.
func (f Filter) String() string {
	data, err := json.Marshal(f)
	if err != nil {
		return f.Name
	}
	return string(data)
}
