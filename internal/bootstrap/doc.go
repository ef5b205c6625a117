// Package bootstrap coordinates sidecar initialization.
//
// The orchestrator decides whether to reuse an existing server or spawn a
// local sidecar, gates the readiness timeout on first-run database
// migration, and publishes one shared terminal result that any number of
// waiters observe. Progress is broadcast as monotonic InitStep transitions
// so a subscriber can join at any point.
package bootstrap
