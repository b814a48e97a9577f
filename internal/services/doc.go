// Package services defines shared error markers and context helpers used by
// the library operations and the command line.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper so command failures map to
//     consistent exit codes.
package services
