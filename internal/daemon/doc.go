// Package daemon ties the supervisor pieces together behind a
// single-instance background process: it owns the initialization
// orchestrator, the persisted settings, and the launch journal, and exposes
// the operations the IPC surface forwards to.
package daemon
