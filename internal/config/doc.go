// Package config loads, normalizes, and validates bookshelf configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the BOOKSHELF_TRUSTED_SOURCE environment fallback.
// Command-line overrides for the path template and library root are resolved
// through FormatFor and DestFor so every command applies the same precedence.
package config
