// Package cli defines the Cobra command tree for the embedlib CLI. Each file
// registers one top-level command (install, search, list, etc.) with the
// root command. Commands build their collaborators from the effective
// configuration and delegate to internal packages; they only handle flag
// parsing, output formatting and user interaction.
//
// All commands accept --verbose (-v) for debug-level logging. The logger is
// carried on the command context.
package cli
