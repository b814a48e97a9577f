// Package organizer carries out library plans on disk.
//
// Execute copies books into a library following a planner.Plan: every copy is
// verified by digest, the destination gets a digest sidecar, auxiliary files
// follow their book, and the library index is updated. ApplyFix renames files
// already inside a library to match the current template. Both take an
// exclusive lock on the library root so concurrent runs cannot interleave,
// and both tag their logs with a fresh run id.
package organizer
