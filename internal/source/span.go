package source

import (
	"fmt"
)

// Span is an opaque handle to the declaration a descriptor came from: the
// input file plus the 1-based ordinal of the declaration inside it. The zero
// value means "no source".
type Span struct {
	File FileID
	Item uint32
}

// IsZero reports whether the span carries no source.
func (s Span) IsZero() bool {
	return s.File == NoFileID && s.Item == 0
}

func (s Span) String() string {
	if s.IsZero() {
		return "<no source>"
	}
	return fmt.Sprintf("%d#%d", s.File, s.Item)
}

// Less orders spans by file, then by item.
func (s Span) Less(other Span) bool {
	if s.File != other.File {
		return s.File < other.File
	}
	return s.Item < other.Item
}
