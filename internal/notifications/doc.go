// Package notifications pushes import results to an ntfy topic.
//
// The watch command runs unattended, so each import it triggers publishes a
// completion or failure message. When no topic is configured NewService
// returns a no-op implementation and callers need no special casing.
package notifications
