// Package main hosts the bookshelf CLI entrypoint and command graph.
//
// The Cobra-based command tree reads and edits audiobook tags, queries the
// metadata providers, plans and executes library organization, and maintains
// the per-library index. It centralizes configuration resolution, logger
// construction and the tag reader/writer so subcommands can focus on user
// experience instead of wiring.
//
// Every command that changes files is a dry run unless --apply is given.
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
