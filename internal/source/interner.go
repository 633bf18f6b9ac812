package source

import (
	"slices"
	"sync"
)

// StringID refers to an interned string. Zero is reserved for "no string".
type StringID uint32

const NoStringID StringID = 0

// Interner deduplicates identifier and literal strings. It is safe for
// concurrent use: files are parsed in parallel against one shared interner.
type Interner struct {
	mu    sync.RWMutex
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""}, // NoStringID -> empty string
		index: map[string]StringID{"": 0},
	}
}

// Intern stores s (copying it away from its backing buffer) and returns its
// stable ID. Repeated calls with the same string return the same ID.
func (in *Interner) Intern(s string) StringID {
	in.mu.RLock()
	id, ok := in.index[s]
	in.mu.RUnlock()
	if ok {
		return id
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[s]; ok {
		return id
	}
	cpy := string([]byte(s))
	id = StringID(len(in.byID)) //nolint:gosec // interner growth bounded by source size
	in.byID = append(in.byID, cpy)
	in.index[cpy] = id
	return id
}

// InternBytes interns a byte slice.
func (in *Interner) InternBytes(b []byte) StringID {
	return in.Intern(string(b))
}

// Lookup returns the string for id, or ("", false) for an unknown ID.
func (in *Interner) Lookup(id StringID) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.byID) {
		return "", false
	}
	return in.byID[id], true
}

// MustLookup returns the string for id and panics on an unknown ID.
func (in *Interner) MustLookup(id StringID) string {
	s, ok := in.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

// Len returns the number of interned strings, counting NoStringID.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.byID)
}

// Snapshot returns a copy of all interned strings.
func (in *Interner) Snapshot() []string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return slices.Clone(in.byID)
}
