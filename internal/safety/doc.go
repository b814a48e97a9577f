// Package safety keeps user data recoverable around destructive edits.
//
// Before tags are rewritten in place the original file is copied to a
// sibling "<name>.bak" with verified content; Backups enforces a storage
// ceiling summed over every backup below a root. Edits that were reviewed
// but not applied are parked in a PendingStore under the cache directory,
// one TOML file per target keyed by a hash of its absolute path.
package safety
