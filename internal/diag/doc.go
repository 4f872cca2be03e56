// Package diag defines the diagnostic model shared by the shape loader, the
// resolver and the descriptor layer.
//
// Diagnostics are data: a Severity, a numeric Code with a stable string
// form, a message, the primary source.Span (a declaration handle) and
// optional notes. Producers emit through a Reporter so they stay decoupled
// from storage; BagReporter collects into a Bag, DedupReporter drops
// repeats, and LockedReporter serializes access for producers that run on
// several goroutines (lazy supertype computations, parallel forcing).
//
// Recoverable semantic problems are diagnostics. Broken API contracts are
// not: those panic with internal/fault errors.
package diag
