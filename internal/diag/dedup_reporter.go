package diag

import "descgraph/internal/source"

type dedupKey struct {
	code Code
	sev  Severity
	span source.Span
	msg  string
}

func keyOf(code Code, sev Severity, span source.Span, msg string) dedupKey {
	return dedupKey{code: code, sev: sev, span: span, msg: msg}
}

// DedupReporter suppresses diagnostics repeating code, severity, span and
// message. Lazy computations may be re-entered after a panic reset, which
// would otherwise report the same cycle twice.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[dedupKey]struct{})}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	if r == nil {
		return
	}
	key := keyOf(code, sev, primary, msg)
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes, fixes)
	}
}
