package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// InstalledFileName is the manifest the package store writes into every
// installed library directory.
const InstalledFileName = ".library.json"

// SourceFileNames are the manifest names recognized inside a library, in
// lookup order.
var SourceFileNames = []string{"library.json", "library.yaml", "library.yml"}

// ErrNoManifest is returned by Find when a directory has no source manifest.
var ErrNoManifest = errors.New("no library manifest found")

// ParseFile reads a manifest and decodes it according to its extension.
// Files ending in .json are decoded as JSON; anything else as YAML.
func ParseFile(path string) (*Library, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	lib, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return lib, nil
}

// Parse decodes manifest data. format is "json" or "yaml".
func Parse(data []byte, format string) (*Library, error) {
	var lib Library
	switch format {
	case "json":
		if err := json.Unmarshal(data, &lib); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &lib); err != nil {
			return nil, err
		}
	}
	return &lib, nil
}

// Find returns the path of the first source manifest present in dir.
func Find(dir string) (string, error) {
	for _, name := range SourceFileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%s: %w", dir, ErrNoManifest)
}

// LoadInstalled reads the installed manifest of a library directory.
func LoadInstalled(dir string) (*Library, error) {
	return ParseFile(filepath.Join(dir, InstalledFileName))
}

// WriteInstalled writes lib as the installed manifest of dir.
func WriteInstalled(dir string, lib *Library) error {
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest for %s: %w", lib.Name, err)
	}
	path := filepath.Join(dir, InstalledFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
