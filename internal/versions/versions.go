// Package versions picks the registry version that best satisfies a
// requirement string.
package versions

import (
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Record is one published version of a library as listed by the registry.
type Record struct {
	Version string `json:"version"`
	Date    string `json:"date"`
}

// dateLayouts are tried in order after the trailing zone marker is stripped.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Select returns the candidate that best satisfies requirement, or nil.
//
// A requirement that parses as a semver range picks the greatest satisfying
// version; candidates that are not valid (possibly partial) versions are
// skipped, and no match means nil. Any other non-empty requirement must
// equal a candidate's version string exactly; the first such candidate wins,
// so the result depends on the order the registry returned. An empty
// requirement picks the most recently published candidate. Ties keep the
// earlier candidate. candidates is never modified.
func Select(candidates []Record, requirement string) *Record {
	requirement = strings.TrimSpace(requirement)
	if requirement == "" {
		return latestByDate(candidates)
	}

	constraint, err := semver.NewConstraint(requirement)
	if err != nil {
		return exactMatch(candidates, requirement)
	}

	var (
		best        *Record
		bestVersion *semver.Version
	)
	for i := range candidates {
		v, err := semver.NewVersion(candidates[i].Version)
		if err != nil || !constraint.Check(v) {
			continue
		}
		if bestVersion == nil || bestVersion.LessThan(v) {
			rec := candidates[i]
			best, bestVersion = &rec, v
		}
	}
	return best
}

// Satisfies reports whether version meets requirement using the same rules
// as Select. An empty requirement is always satisfied.
func Satisfies(version, requirement string) bool {
	requirement = strings.TrimSpace(requirement)
	if requirement == "" {
		return true
	}
	constraint, err := semver.NewConstraint(requirement)
	if err != nil {
		return version == requirement
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return constraint.Check(v)
}

func exactMatch(candidates []Record, requirement string) *Record {
	for i := range candidates {
		if candidates[i].Version == requirement {
			rec := candidates[i]
			return &rec
		}
	}
	return nil
}

func latestByDate(candidates []Record) *Record {
	var (
		best     *Record
		bestDate time.Time
		bestOK   bool
	)
	for i := range candidates {
		d, ok := ParseDate(candidates[i].Date)
		switch {
		case best == nil:
		case ok && (!bestOK || bestDate.Before(d)):
		default:
			continue
		}
		rec := candidates[i]
		best, bestDate, bestOK = &rec, d, ok
	}
	return best
}

// ParseDate parses a registry publish timestamp such as
// "2021-03-04T05:06:07Z" as a zone-less date-time.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
