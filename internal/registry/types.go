package registry

import "github.com/embedlib/embedlib/internal/versions"

// Library is one registry entry as returned by search and info endpoints.
type Library struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Frameworks  []string `json:"frameworks,omitempty"`
	Platforms   []string `json:"platforms,omitempty"`
	Version     string   `json:"version,omitempty"`
	Updated     string   `json:"updated,omitempty"`
}

// LibraryInfo is the detailed view returned for a single library.
type LibraryInfo struct {
	Library
	Homepage   string            `json:"homepage,omitempty"`
	Repository string            `json:"repository,omitempty"`
	License    string            `json:"license,omitempty"`
	Versions   []versions.Record `json:"versions,omitempty"`
}

// SearchResult is a page of search matches. Total may exceed len(Items).
type SearchResult struct {
	Total   int       `json:"total"`
	Page    int       `json:"page,omitempty"`
	PerPage int       `json:"perpage,omitempty"`
	Items   []Library `json:"items"`
}

// Download is the resolved archive location for one library version.
type Download struct {
	URL     string `json:"url"`
	Version string `json:"version,omitempty"`
	SHA256  string `json:"sha256,omitempty"`
}
