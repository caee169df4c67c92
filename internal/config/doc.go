// Package config manages user-level settings stored at ~/.embedlib/config.yaml.
// Values can be overridden with EMBEDLIB_* environment variables. Settings
// is the typed snapshot the rest of the CLI threads into the resolver and
// installer so no core package reads ambient configuration on its own.
package config
