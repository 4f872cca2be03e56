package diag

import (
	"encoding/json"
	"io"

	"descgraph/internal/source"
)

// LocationJSON is a span in JSON output. Item is the declaration ordinal
// within the file; both fields are omitted for spans without a source.
type LocationJSON struct {
	File string `json:"file,omitempty"`
	Item uint32 `json:"item,omitempty"`
}

type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

type FixJSON struct {
	Title       string `json:"title"`
	Replacement string `json:"replacement,omitempty"`
}

type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
	Fixes    []FixJSON    `json:"fixes,omitempty"`
}

// DiagnosticsOutput is the document written by WriteJSON.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Dropped     int              `json:"dropped,omitempty"`
}

func makeLocation(sp source.Span, fs *source.FileSet) LocationJSON {
	if sp.IsZero() {
		return LocationJSON{}
	}
	loc := LocationJSON{Item: sp.Item}
	if fs != nil {
		loc.File = fs.Path(sp.File)
	}
	return loc
}

// BuildJSON converts the bag into its JSON document. Timing notes are
// always kept since they carry the payload.
func BuildJSON(b *Bag, fs *source.FileSet, includeNotes bool) DiagnosticsOutput {
	out := DiagnosticsOutput{Diagnostics: make([]DiagnosticJSON, 0, b.Len()), Dropped: b.Dropped()}
	for _, d := range b.Items() {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Location: makeLocation(d.Primary, fs),
		}
		if includeNotes || d.Code == ObsTimings {
			for _, n := range d.Notes {
				dj.Notes = append(dj.Notes, NoteJSON{Message: n.Msg, Location: makeLocation(n.Span, fs)})
			}
		}
		for _, f := range d.Fixes {
			dj.Fixes = append(dj.Fixes, FixJSON(f))
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// WriteJSON writes the bag as an indented JSON document.
func WriteJSON(w io.Writer, b *Bag, fs *source.FileSet, includeNotes bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildJSON(b, fs, includeNotes))
}
