package diag

import (
	"fmt"
	"strings"

	"descgraph/internal/source"
)

// FormatShort renders one line per diagnostic:
//
//	path#item: ERROR SEM3001: message
//
// Notes follow on indented lines when includeNotes is set. Diagnostics are
// printed in the given order; sort the Bag first for stable output.
func FormatShort(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	var sb strings.Builder
	for _, d := range diags {
		fmt.Fprintf(&sb, "%s: %s %s: %s\n", where(fs, d.Primary), d.Severity, d.Code.ID(), d.Message)
		for _, fix := range d.Fixes {
			fmt.Fprintf(&sb, "    fix: %s\n", fix.Title)
		}
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(&sb, "    note: %s: %s\n", where(fs, n.Span), n.Msg)
		}
	}
	return sb.String()
}

func where(fs *source.FileSet, sp source.Span) string {
	if fs == nil {
		return sp.String()
	}
	return fs.Format(sp)
}
