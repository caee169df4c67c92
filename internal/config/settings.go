package config

import (
	"path/filepath"
	"time"

	"github.com/embedlib/embedlib/internal/branding"
	"github.com/spf13/viper"
)

// Setting keys.
const (
	KeyEnablePrompts = "enable_prompts"
	KeyRegistryURL   = "registry_url"
	KeyLibDir        = "lib_dir"
	KeyHTTPTimeout   = "http_timeout"
	KeyMaxRetries    = "max_retries"
)

// LibDirName is the directory under the home dir holding installed libraries.
const LibDirName = "lib"

// Settings is a typed snapshot of the effective configuration.
type Settings struct {
	EnablePrompts bool
	RegistryURL   string
	LibDir        string
	HTTPTimeout   time.Duration
	MaxRetries    int
}

func defaultValues() map[string]any {
	return map[string]any{
		KeyEnablePrompts: false,
		KeyRegistryURL:   branding.RegistryURL(),
		KeyLibDir:        filepath.Join(Dir(), LibDirName),
		KeyHTTPTimeout:   "5m",
		KeyMaxRetries:    3,
	}
}

func setDefaults() {
	for k, v := range defaultValues() {
		viper.SetDefault(k, v)
	}
}

// Current returns the effective settings. Load must have been called first
// for file and environment values to take effect; defaults always apply.
func Current() Settings {
	setDefaults()
	timeout := viper.GetDuration(KeyHTTPTimeout)
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	retries := viper.GetInt(KeyMaxRetries)
	if retries < 0 {
		retries = 0
	}
	return Settings{
		EnablePrompts: viper.GetBool(KeyEnablePrompts),
		RegistryURL:   viper.GetString(KeyRegistryURL),
		LibDir:        viper.GetString(KeyLibDir),
		HTTPTimeout:   timeout,
		MaxRetries:    retries,
	}
}
