package deps

import (
	"net/url"
	"path"
	"strconv"
	"strings"
)

// IDPrefix marks a registry identity in a request string, e.g. "id=42".
const IDPrefix = "id="

// Request is a parsed install request.
type Request struct {
	Name        string
	Requirement string
	URL         string
}

// ParseRequest splits a raw install argument into name, requirement and URL.
//
//	id=42                   registry identity
//	name=https://host/x.zip direct source pinned under a name
//	https://host/x.zip      direct source, name taken from the URL
//	name@^1.2.0             name with requirement
//
// A non-empty requirement argument takes precedence over one embedded in raw.
func ParseRequest(raw, requirement string) Request {
	raw = strings.TrimSpace(raw)
	req := Request{Name: raw, Requirement: strings.TrimSpace(requirement)}

	if strings.HasPrefix(raw, IDPrefix) {
		return req
	}
	if name, source, ok := strings.Cut(raw, "="); ok && name != "" && !IsSource(name) && IsSource(source) {
		req.Name = strings.TrimSpace(name)
		req.URL = strings.TrimSpace(source)
		return req
	}
	if IsSource(raw) {
		req.URL = raw
		req.Name = NameFromSource(raw)
		return req
	}

	if i := strings.LastIndex(raw, "@"); i > 0 {
		req.Name = raw[:i]
		if req.Requirement == "" {
			req.Requirement = raw[i+1:]
		}
	}
	return req
}

// IsSource reports whether s looks like a URL or filesystem path rather than
// a registry name.
func IsSource(s string) bool {
	return strings.Contains(s, "://") || strings.ContainsAny(s, `\/`)
}

// NameFromSource derives a library name from the last element of a URL or path.
func NameFromSource(source string) string {
	p := source
	if u, err := url.Parse(source); err == nil && u.Scheme != "" {
		p = u.Path
	}
	p = strings.TrimRight(strings.ReplaceAll(p, `\`, "/"), "/")
	base := path.Base(p)
	for _, ext := range []string{".tar.gz", ".tgz", ".zip", ".git"} {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "." || base == "/" {
		return source
	}
	return base
}

// ParseID extracts the registry id from an "id=N" name.
func ParseID(name string) (int, bool) {
	if !strings.HasPrefix(name, IDPrefix) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(name, IDPrefix))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// IDName formats a registry id as "id=N".
func IDName(id int) string {
	return IDPrefix + strconv.Itoa(id)
}
