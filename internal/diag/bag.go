package diag

import (
	"sort"

	"fortio.org/safecast"
)

// Bag collects diagnostics up to a limit. It is not goroutine-safe; wrap
// its reporter in a LockedReporter when producers run concurrently.
type Bag struct {
	items   []Diagnostic
	max     uint16
	dropped int
}

// NewBag returns a Bag holding at most max diagnostics. Non-positive or
// oversized limits are clamped to the uint16 range.
func NewBag(max int) *Bag {
	limit, err := safecast.Conv[uint16](max)
	if err != nil || limit == 0 {
		limit = ^uint16(0)
	}
	return &Bag{max: limit}
}

// Add appends d. It returns false when the limit is reached.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= int(b.max) {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() uint16 { return b.max }

// Dropped counts diagnostics rejected because of the limit.
func (b *Bag) Dropped() int { return b.dropped }

func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

func (b *Bag) HasWarnings() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int { return len(b.items) }

// Items returns the underlying slice. Callers must not modify it.
func (b *Bag) Items() []Diagnostic { return b.items }

// Count returns how many diagnostics carry code.
func (b *Bag) Count(code Code) int {
	n := 0
	for i := range b.items {
		if b.items[i].Code == code {
			n++
		}
	}
	return n
}

// AtLeast returns the diagnostics of b at or above min. The limit and
// the dropped count carry over; b itself is returned when nothing is
// filtered.
func (b *Bag) AtLeast(min Severity) *Bag {
	if min <= SevInfo {
		return b
	}
	out := &Bag{max: b.max, dropped: b.dropped}
	for i := range b.items {
		if b.items[i].Severity >= min {
			out.items = append(out.items, b.items[i])
		}
	}
	return out
}

// Merge appends all diagnostics of other, growing the limit if needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	if total := len(b.items) + len(other.items); total > int(b.max) {
		if limit, err := safecast.Conv[uint16](total); err == nil {
			b.max = limit
		} else {
			b.max = ^uint16(0)
		}
	}
	for _, d := range other.items {
		b.Add(d)
	}
}

// Sort orders diagnostics by span, then severity (errors first), then code
// and message, so output does not depend on goroutine scheduling.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary != dj.Primary {
			return di.Primary.Less(dj.Primary)
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})
}

// Dedup drops diagnostics repeating an earlier code, span and message.
func (b *Bag) Dedup() {
	seen := make(map[dedupKey]struct{}, len(b.items))
	kept := b.items[:0]
	for _, d := range b.items {
		key := keyOf(d.Code, d.Severity, d.Primary, d.Message)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, d)
	}
	b.items = kept
}

// Filter keeps diagnostics for which keep returns true.
func (b *Bag) Filter(keep func(Diagnostic) bool) {
	kept := b.items[:0]
	for _, d := range b.items {
		if keep(d) {
			kept = append(kept, d)
		}
	}
	b.items = kept
}
