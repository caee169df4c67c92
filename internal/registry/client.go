package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/embedlib/embedlib/internal/fetch"
	"github.com/embedlib/embedlib/internal/versions"
)

// maxResponseSize caps registry API responses.
const maxResponseSize = 8 << 20

// Client talks to the registry API rooted at baseURL.
type Client struct {
	baseURL string
	showURL string
	fetcher fetch.Interface
}

// Option configures a Client.
type Option func(*Client)

// WithShowURL sets the base of the public library pages used in ShowURL.
func WithShowURL(u string) Option {
	return func(c *Client) {
		c.showURL = strings.TrimRight(u, "/")
	}
}

// New creates a Client for baseURL using f for transport.
func New(baseURL string, f fetch.Interface, opts ...Option) *Client {
	base := strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL: base,
		showURL: base + "/lib/show",
		fetcher: f,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs a registry query built from field:"value" terms.
func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	var result SearchResult
	endpoint := c.baseURL + "/lib/search?" + url.Values{"query": {query}}.Encode()
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("searching registry for %q: %w", query, err)
	}
	return &result, nil
}

// Versions lists the published versions of library id.
func (c *Client) Versions(ctx context.Context, id int) ([]versions.Record, error) {
	var records []versions.Record
	endpoint := c.baseURL + "/lib/versions/" + strconv.Itoa(id)
	if err := c.getJSON(ctx, endpoint, &records); err != nil {
		return nil, fmt.Errorf("listing versions of library %d: %w", id, err)
	}
	return records, nil
}

// Download resolves the archive URL for a version of library id.
func (c *Client) Download(ctx context.Context, id int, version string) (*Download, error) {
	var dl Download
	endpoint := c.baseURL + "/lib/download/" + strconv.Itoa(id) + "?" + url.Values{"version": {version}}.Encode()
	if err := c.getJSON(ctx, endpoint, &dl); err != nil {
		return nil, fmt.Errorf("resolving download of library %d@%s: %w", id, version, err)
	}
	if dl.URL == "" {
		return nil, fmt.Errorf("registry returned no download URL for library %d@%s", id, version)
	}
	if dl.Version == "" {
		dl.Version = version
	}
	return &dl, nil
}

// Library fetches the details of library id.
func (c *Client) Library(ctx context.Context, id int) (*LibraryInfo, error) {
	var info LibraryInfo
	endpoint := c.baseURL + "/lib/info/" + strconv.Itoa(id)
	if err := c.getJSON(ctx, endpoint, &info); err != nil {
		return nil, fmt.Errorf("fetching library %d: %w", id, err)
	}
	return &info, nil
}

// ShowURL returns the public page of a library.
func (c *Client) ShowURL(id int, name string) string {
	return fmt.Sprintf("%s/%d/%s", c.showURL, id, url.PathEscape(name))
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	data, err := fetch.ReadAll(ctx, c.fetcher, endpoint, maxResponseSize)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing response from %s: %w", endpoint, err)
	}
	return nil
}
