// Package notify delivers milestone push notifications via ntfy.
//
// Notifications are strictly best-effort: the transition engine fires them
// after a commit and ignores failures, so delivery problems can never block
// or fail a stage transition.
package notify
