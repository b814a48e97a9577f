// Package preflight provides readiness checks for the binaries, directories
// and metadata endpoints that bookshelf depends on.
//
// The CLI "bookshelf doctor" command runs RunAll and renders each Result.
// Endpoint checks only run when online checks are requested, so doctor
// stays usable without network access.
package preflight
