// Package registry is the HTTP client for the remote library registry.
// It covers library search, version listings, download resolution, and
// library details. Requests go through a fetch.Interface so retries and
// circuit breaking are shared with archive downloads.
package registry
