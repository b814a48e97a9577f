// Package ffprobe provides a typed wrapper around ffprobe JSON output for
// audiobook containers.
//
// Key types:
//   - Result: parsed ffprobe output containing streams, chapters and format
//   - Stream: individual audio or attached-picture stream properties
//   - Format: container-level metadata (duration, size, tags)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Tag lookups are case-insensitive because muxers disagree on key casing.
package ffprobe
