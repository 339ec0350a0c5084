// Package internal documents the EventEase server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, rendering, and routing
// - domain: business logic for users, events, and registrations
// - storage: Postgres repositories and migrations
// - auth, config, email, metrics, sanitize: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
