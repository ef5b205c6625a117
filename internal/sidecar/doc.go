// Package sidecar spawns and supervises the backend server process.
//
// Spawn launches the configured binary with stdout/stderr multiplexed into a
// single ordered event channel and returns a Handle whose Kill is
// fire-and-forget and idempotent. The invocation builders translate a logical
// command into a concrete executable, argument list, and environment for the
// direct, login-shell, and WSL launch strategies. ProbeConfig runs the
// sidecar's diagnostic subcommand to discover an externally configured server
// address.
package sidecar
