// Package logging assembles structured slog loggers for the bookshelf
// command line.
//
// It owns the console and JSON handlers, parses level names, and exposes
// context-aware helpers that tag lines with the run ID and stage carried by
// the context. A no-op logger is provided for tests and library callers that
// do not care about output.
package logging
