package diag

import (
	"fmt"
	"sort"
)

// Bag accumulates diagnostics for one compilation run. Append-only; the
// pipeline stages share it sequentially, so no locking is needed.
type Bag struct {
	items []Diagnostic
	max   int
}

func NewBag(max int) *Bag {
	return &Bag{
		items: make([]Diagnostic, 0, min(max, 64)),
		max:   max,
	}
}

// Add appends a diagnostic, honoring the cap. Returns false when the cap
// was reached and the diagnostic was dropped.
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// HasErrors reports whether any diagnostic has Severity >= Error.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any diagnostic has Severity >= Warning.
func (b *Bag) HasWarnings() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns a read-only view of the accumulated diagnostics. Callers
// must not modify the returned slice.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge appends all diagnostics from other, growing the cap if needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	if newTotal := len(b.items) + len(other.items); b.max > 0 && newTotal > b.max {
		b.max = newTotal
	}
	b.items = append(b.items, other.items...)
}

// Sort orders diagnostics by file, start, end, severity (desc), code so
// output is deterministic across runs.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

// Dedup removes diagnostics that repeat an earlier (code, primary) pair.
func (b *Bag) Dedup() {
	seen := make(map[string]bool, len(b.items))
	out := b.items[:0]
	for _, d := range b.items {
		key := fmt.Sprintf("%s:%s", d.Code.ID(), d.Primary.String())
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	b.items = out
}
