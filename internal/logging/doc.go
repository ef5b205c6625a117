// Package logging assembles the structured slog loggers used across skipper.
//
// It owns the console/JSON handlers, level and output plumbing, attr helpers,
// and a no-op logger for tests and wiring code that cannot fail. It also
// provides TailBuffer, a bounded in-memory record of recent log lines that the
// orchestrator attaches to terminal failure messages.
//
// Prefer these constructors over hand-rolled slog setup so all components emit
// data with the same shape.
package logging
