// Package textutil provides small text helpers shared by the path template
// engine, the edit form, and the CLI.
//
// The primary use cases are:
//   - Sanitizing metadata values into safe path components
//   - Truncating values for fixed-width table columns
package textutil
