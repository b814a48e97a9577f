// Package notifications delivers library events via ntfy.
//
// NewService returns an ntfy-backed Service when notifications.ntfy_topic is
// set and a no-op otherwise, so commands publish unconditionally. Each Event
// maps to a title, message and tag set built from the Payload fields.
package notifications
