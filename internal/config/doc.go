// Package config loads and validates the wraptrack TOML configuration.
//
// Defaults live in defaults.go; Load layers a config file over them, expands
// paths, and validates the result. A sample config is embedded for the
// `config init` command.
package config
