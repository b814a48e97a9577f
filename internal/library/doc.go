// Package library maintains the searchable SQLite index stored at the root of
// an organized library (".bookshelf.db").
//
// Rows are keyed by the file path relative to the library root so the index
// stays valid when the library is mounted elsewhere. Each row records size,
// content digest, the time it was last indexed and the tracked metadata
// fields. Writes retry briefly while another process holds the database lock.
package library
