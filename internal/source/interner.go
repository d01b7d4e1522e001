package source

// StringID is a handle to an interned string.
type StringID uint32

// NoStringID marks the absence of an interned string; it resolves to "".
const NoStringID StringID = 0

// Interner deduplicates strings and hands out stable IDs for them.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""}, // NoStringID resolves to the empty string
		index: map[string]StringID{"": 0},
	}
}

// Intern stores s and returns its ID, reusing the existing ID when s was
// interned before.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}

	// Copy so the interner does not keep the caller's backing buffer alive.
	cpy := string([]byte(s))
	id := StringID(len(i.byID))
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Find returns the ID for s without interning it.
func (i *Interner) Find(s string) (StringID, bool) {
	id, ok := i.index[s]
	return id, ok
}

// Lookup resolves an ID back to its string. Invalid IDs yield ("", false).
func (i *Interner) Lookup(id StringID) (string, bool) {
	if !i.Has(id) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup resolves an ID, returning "" for invalid IDs.
func (i *Interner) MustLookup(id StringID) string {
	s, _ := i.Lookup(id)
	return s
}

// Has reports whether id refers to an interned string.
func (i *Interner) Has(id StringID) bool {
	return int(id) < len(i.byID)
}

// Len returns the number of interned strings, including the empty string.
func (i *Interner) Len() int {
	return len(i.byID)
}
