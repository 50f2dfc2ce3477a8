// Package logging assembles structured slog loggers and formatting helpers used
// across ChronoClean commands.
//
// It owns the console/JSON handlers, fans output out to the terminal and an
// optional log file, and exposes context helpers so planning, verification, and
// cleanup code can tag log lines with run and verification identifiers. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
