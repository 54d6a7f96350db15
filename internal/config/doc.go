// Package config loads, normalizes, and validates lorry's TOML
// configuration. Defaults cover the standard lorry-receipt manifest layout
// so a bare config file is enough to start ingesting.
package config
