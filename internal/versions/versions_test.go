package versions

import (
	"reflect"
	"testing"
)

func records(pairs ...string) []Record {
	var out []Record
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Record{Version: pairs[i], Date: pairs[i+1]})
	}
	return out
}

func TestSelect(t *testing.T) {
	candidates := records(
		"1.2.3", "2020-01-01T00:00:00Z",
		"1.4.0", "2020-06-01T00:00:00Z",
		"2.0.0", "2021-01-01T00:00:00Z",
		"1.3", "2020-03-01T00:00:00Z",
		"nightly", "2022-01-01T00:00:00Z",
	)

	tests := []struct {
		name        string
		candidates  []Record
		requirement string
		want        string // "" means nil
	}{
		{"caret range", candidates, "^1.2.3", "1.4.0"},
		{"comparison range", candidates, ">=1.0.0, <1.4.0", "1.3"},
		{"tilde range", candidates, "~1.2", "1.2.3"},
		{"exact semver", candidates, "2.0.0", "2.0.0"},
		{"partial requirement", candidates, "1.3", "1.3"},
		{"unsatisfiable range", candidates, "^9.0.0", ""},
		{"exact string fallback", candidates, "nightly", "nightly"},
		{"exact string no match", candidates, "feature-x", ""},
		{"absent picks latest date", candidates, "", "nightly"},
		{"whitespace is absent", candidates, "   ", "nightly"},
		{"empty candidates", nil, "^1.0.0", ""},
		{"empty candidates latest", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.candidates, tt.requirement)
			if tt.want == "" {
				if got != nil {
					t.Errorf("Select(%q) = %+v, want nil", tt.requirement, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Select(%q) = nil, want %s", tt.requirement, tt.want)
			}
			if got.Version != tt.want {
				t.Errorf("Select(%q) = %s, want %s", tt.requirement, got.Version, tt.want)
			}
		})
	}
}

func TestSelectLatestByDate(t *testing.T) {
	candidates := records(
		"1.0.0", "2020-01-01T00:00:00Z",
		"1.1.0", "2021-01-01T00:00:00Z",
	)
	got := Select(candidates, "")
	if got == nil || got.Version != "1.1.0" {
		t.Fatalf("Select() = %+v, want 1.1.0", got)
	}
}

func TestSelectDateTiesKeepFirst(t *testing.T) {
	candidates := records(
		"a", "2021-05-05T10:00:00Z",
		"b", "2021-05-05T10:00:00Z",
		"c", "2020-05-05T10:00:00Z",
	)
	if got := Select(candidates, ""); got == nil || got.Version != "a" {
		t.Errorf("Select() = %+v, want a", got)
	}
}

func TestSelectUnparsableDateNeverWins(t *testing.T) {
	candidates := records(
		"broken", "yesterday",
		"1.0.0", "2019-01-01T00:00:00Z",
		"also-broken", "",
	)
	if got := Select(candidates, ""); got == nil || got.Version != "1.0.0" {
		t.Errorf("Select() = %+v, want 1.0.0", got)
	}
}

func TestSelectRangeTiesKeepFirst(t *testing.T) {
	candidates := records(
		"1.2", "2020-01-01T00:00:00Z",
		"1.2.0", "2021-01-01T00:00:00Z",
	)
	got := Select(candidates, "^1.0")
	if got == nil || got.Date != "2020-01-01T00:00:00Z" {
		t.Errorf("Select() = %+v, want the first 1.2 record", got)
	}
}

func TestSelectExactFirstMatchWins(t *testing.T) {
	candidates := records(
		"dev", "2020-01-01T00:00:00Z",
		"dev", "2021-01-01T00:00:00Z",
	)
	got := Select(candidates, "dev")
	if got == nil || got.Date != "2020-01-01T00:00:00Z" {
		t.Errorf("Select() = %+v, want the first dev record", got)
	}
}

func TestSelectRangeNotDominated(t *testing.T) {
	candidates := records(
		"0.9.0", "", "1.0.0", "", "1.0.5", "", "1.9.9", "", "2.0.0", "", "1.10.0", "",
	)
	got := Select(candidates, "^1.0.0")
	if got == nil {
		t.Fatal("Select() = nil")
	}
	if got.Version != "1.10.0" {
		t.Errorf("Select() = %s, want 1.10.0", got.Version)
	}
	for _, c := range candidates {
		if Satisfies(c.Version, "^1.0.0") && c.Version != got.Version {
			if !lessThan(t, c.Version, got.Version) {
				t.Errorf("%s dominates selected %s", c.Version, got.Version)
			}
		}
	}
}

func lessThan(t *testing.T, a, b string) bool {
	t.Helper()
	sel := Select(records(a, "", b, ""), ">="+a)
	return sel != nil && sel.Version == b
}

func TestSelectDoesNotMutate(t *testing.T) {
	candidates := records(
		"1.0.0", "2020-01-01T00:00:00Z",
		"2.0.0", "2021-01-01T00:00:00Z",
	)
	before := append([]Record(nil), candidates...)

	got := Select(candidates, "^1.0.0")
	got.Version = "changed"

	if !reflect.DeepEqual(candidates, before) {
		t.Errorf("candidates modified: %+v", candidates)
	}
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		version     string
		requirement string
		want        bool
	}{
		{"1.2.3", "", true},
		{"1.2.3", "^1.0.0", true},
		{"2.0.0", "^1.0.0", false},
		{"1.2", "~1.2.0", true},
		{"feature-x", "feature-x", true},
		{"feature-y", "feature-x", false},
		{"not-a-version", "^1.0.0", false},
	}
	for _, tt := range tests {
		if got := Satisfies(tt.version, tt.requirement); got != tt.want {
			t.Errorf("Satisfies(%q, %q) = %v, want %v", tt.version, tt.requirement, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in     string
		wantOK bool
	}{
		{"2021-01-01T00:00:00Z", true},
		{"2021-01-01T00:00:00", true},
		{"2021-01-01 12:30:45", true},
		{"2021-01-01", false},
		{"", false},
	}
	for _, tt := range tests {
		if _, ok := ParseDate(tt.in); ok != tt.wantOK {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
		}
	}
}
