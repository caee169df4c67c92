package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/embedlib/embedlib/internal/deps"
)

const testdataDir = "testdata"

func testPath(name string) string {
	return filepath.Join(testdataDir, name)
}

func TestParseFile(t *testing.T) {
	tests := []struct {
		file       string
		name       string
		version    string
		authors    []string
		frameworks []string
		platforms  []string
		deps       []deps.Filter
	}{
		{
			file:       "valid-object.json",
			name:       "OneWire",
			version:    "2.3.5",
			authors:    []string{"Paul Stoffregen", "Jim Studt"},
			frameworks: []string{"arduino"},
			platforms:  nil,
			deps: []deps.Filter{
				{Name: "CRC", Version: "^1.0.0", Platforms: []string{"atmelavr", "espressif32"}},
			},
		},
		{
			file:       "valid-mapping.json",
			name:       "SensorHub",
			version:    "0.4.0",
			authors:    []string{"Jane Roe", "John Doe"},
			frameworks: []string{"arduino", "espidf"},
			deps: []deps.Filter{
				{Name: "OneWire", Version: "^2.3.0"},
				{Name: "DallasTemperature", Version: "3.9.1"},
				{Name: "BusIO", Version: "https://example.com/forks/busio.zip"},
			},
		},
		{
			file:      "valid-list.yaml",
			name:      "display-kit",
			version:   "1.2",
			authors:   []string{"Ada"},
			platforms: []string{"espressif32", "native"},
			deps: []deps.Filter{
				{Name: "GFX", Version: "~1.11"},
				{Name: "SPI"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			lib, err := ParseFile(testPath(tt.file))
			if err != nil {
				t.Fatalf("ParseFile() error: %v", err)
			}
			if lib.Name != tt.name || lib.Version != tt.version {
				t.Errorf("got %s@%s, want %s@%s", lib.Name, lib.Version, tt.name, tt.version)
			}
			if got := lib.Authors.Names(); !reflect.DeepEqual(got, tt.authors) {
				t.Errorf("authors = %v, want %v", got, tt.authors)
			}
			if got := []string(lib.Frameworks); !reflect.DeepEqual(got, tt.frameworks) {
				t.Errorf("frameworks = %#v, want %#v", got, tt.frameworks)
			}
			if got := []string(lib.Platforms); !reflect.DeepEqual(got, tt.platforms) {
				t.Errorf("platforms = %#v, want %#v", got, tt.platforms)
			}
			if !lib.HasDependencies() {
				t.Fatal("HasDependencies() = false")
			}
			if got := lib.Dependencies.Filters(); !reflect.DeepEqual(got, tt.deps) {
				t.Errorf("dependencies = %#v, want %#v", got, tt.deps)
			}
		})
	}
}

func TestParseFileMalformed(t *testing.T) {
	if _, err := ParseFile(testPath("malformed.json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(testPath("nope.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want ErrNotExist", err)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if _, err := Find(dir); !errors.Is(err, ErrNoManifest) {
		t.Fatalf("Find(empty) error = %v, want ErrNoManifest", err)
	}

	os.WriteFile(filepath.Join(dir, "library.yml"), []byte("name: a\n"), 0644)
	os.WriteFile(filepath.Join(dir, "library.json"), []byte(`{"name": "a"}`), 0644)

	got, err := Find(dir)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if filepath.Base(got) != "library.json" {
		t.Errorf("Find() = %s, want library.json first", got)
	}
}

func TestInstalledRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src, err := ParseFile(testPath("valid-mapping.json"))
	if err != nil {
		t.Fatal(err)
	}
	src.ID = 42
	src.URL = "https://dl.example.com/sensorhub.tar.gz"
	src.Requirements = "^0.4"

	if err := WriteInstalled(dir, src); err != nil {
		t.Fatalf("WriteInstalled() error: %v", err)
	}

	got, err := LoadInstalled(dir)
	if err != nil {
		t.Fatalf("LoadInstalled() error: %v", err)
	}
	if got.ID != 42 || got.URL != src.URL || got.Requirements != "^0.4" {
		t.Errorf("installed = %+v", got)
	}
	if !reflect.DeepEqual(got.Dependencies.Filters(), src.Dependencies.Filters()) {
		t.Errorf("dependencies changed: %v vs %v", got.Dependencies.Filters(), src.Dependencies.Filters())
	}
	if !reflect.DeepEqual(got.Authors, src.Authors) {
		t.Errorf("authors changed: %v vs %v", got.Authors, src.Authors)
	}
}

func TestInstalledWithoutDependencies(t *testing.T) {
	dir := t.TempDir()
	if err := WriteInstalled(dir, &Library{Name: "bare", Version: "1.0.0"}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, InstalledFileName))
	if string(data) == "" {
		t.Fatal("empty manifest")
	}

	got, err := LoadInstalled(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.HasDependencies() {
		t.Errorf("HasDependencies() = true for %s", data)
	}
}
