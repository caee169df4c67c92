package cli

import (
	"strings"
	"testing"

	"github.com/embedlib/embedlib/internal/registry"
	"github.com/embedlib/embedlib/internal/resolver"
)

func TestSearchFilterBuildsResolverQuery(t *testing.T) {
	tests := []struct {
		name       string
		names      []string
		authors    []string
		frameworks []string
		platforms  []string
		want       string
	}{
		{"single name", []string{"OneWire"}, nil, nil, nil, `name:"OneWire"`},
		{"several names", []string{"OneWire", "Servo"}, nil, nil, nil, `name:"OneWire" name:"Servo"`},
		{
			"all filters",
			[]string{"Servo"}, []string{"Arduino"}, []string{"arduino"}, []string{"atmelavr", "espressif32"},
			`name:"Servo" author:"Arduino" framework:"arduino" platform:"atmelavr" platform:"espressif32"`,
		},
		{"wildcard and blanks dropped", []string{"x"}, []string{" "}, []string{"*"}, nil, `name:"x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := searchFilter(tt.names, tt.authors, tt.frameworks, tt.platforms)
			if got := resolver.BuildQuery(f); got != tt.want {
				t.Errorf("query = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSearchRows(t *testing.T) {
	items := []registry.Library{
		{ID: 1, Name: "OneWire", Version: "2.3.5", Frameworks: []string{"arduino", "mbed"}},
		{ID: 2, Name: "Bare", Description: strings.Repeat("x", 80)},
	}
	rows := searchRows(items)

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][0] != "1" || rows[0][3] != "arduino, mbed" {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1][2] != "-" || rows[1][4] != "-" {
		t.Errorf("empty fields should render as '-': %v", rows[1])
	}
	if got := len([]rune(rows[1][5])); got != 50 {
		t.Errorf("description length = %d, want truncated to 50", got)
	}
	if len(rows[0]) != len(searchHeaders) {
		t.Errorf("row has %d cells, headers %d", len(rows[0]), len(searchHeaders))
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"much longer text", 10, "much lo..."},
		{"äöüäöüäöü", 5, "äö..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
