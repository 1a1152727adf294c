// Package store persists jobs and their audit records in SQLite. Stage and
// checklist writes are last-write-wins; approval and send-back records are
// append-only.
package store
