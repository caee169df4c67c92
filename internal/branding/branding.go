// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded into the binary, so a fork only needs to edit
// that file to rename the tool, its home directory, and its default registry.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	RegistryURL string `yaml:"registry_url"`
	ShowURL     string `yaml:"show_url"`
}

func load() {
	once.Do(func() {
		defaults = brand{
			CLIName:     "embedlib",
			DisplayName: "EmbedLib",
			Description: "Library manager for embedded firmware projects",
			HomeDir:     ".embedlib",
			EnvPrefix:   "EMBEDLIB",
			RegistryURL: "https://registry.embedlib.dev/v1",
			ShowURL:     "https://embedlib.dev/lib/show",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "embedlib").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".embedlib").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "EMBEDLIB").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// RegistryURL returns the default library registry API base URL.
func RegistryURL() string { load(); return defaults.RegistryURL }

// ShowURL returns the base of the public library detail pages.
func ShowURL() string { load(); return defaults.ShowURL }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("lib_dir") → "EMBEDLIB_LIB_DIR".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
