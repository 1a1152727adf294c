// Package main hosts the wraptrack CLI entrypoint and command graph.
//
// The Cobra-based command tree covers job creation and listing, stage
// sign-offs and send-backs, PIN-protected checklist edits, configuration
// scaffolding, and notification testing. It centralizes configuration
// resolution, store access, and logging setup so subcommands can focus on
// user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
