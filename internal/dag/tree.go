package dag

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// TreeEntry names one child of a Tree.
type TreeEntry struct {
	Name    string  `json:"name"`
	Address Address `json:"address"`
	Kind    Kind    `json:"kind"`
}

// Tree maps unique names to blob or tree children. Entries are kept sorted
// by name so the encoding does not depend on insertion order.
type Tree struct {
	Entries []TreeEntry `json:"entries"`
}

// NewTree validates entries and returns them as a sorted Tree.
func NewTree(entries ...TreeEntry) (*Tree, error) {
	t := &Tree{Entries: sortedEntries(entries)}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func sortedEntries(entries []TreeEntry) []TreeEntry {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

// Kind implements Content.
func (t *Tree) Kind() Kind { return KindTree }

func (*Tree) isContent() {}

// Validate checks names, kinds and addresses, and that entries are in
// canonical order with no duplicate names.
func (t *Tree) Validate() error {
	for i, e := range t.Entries {
		if err := ValidateName(e.Name); err != nil {
			return err
		}
		if e.Kind != KindBlob && e.Kind != KindTree {
			return fmt.Errorf("tree entry %q: kind %q is not blob or tree", e.Name, e.Kind)
		}
		if !e.Address.Defined() {
			return fmt.Errorf("tree entry %q: %w", e.Name, ErrUndefinedAddress)
		}
		if i > 0 {
			prev := t.Entries[i-1].Name
			if prev == e.Name {
				return fmt.Errorf("tree entry %q: duplicate name", e.Name)
			}
			if prev > e.Name {
				return fmt.Errorf("tree entry %q: entries not sorted", e.Name)
			}
		}
	}
	return nil
}

// ValidateName rejects names that cannot appear as a single path element.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("tree entry: empty name")
	case name == "." || name == "..":
		return fmt.Errorf("tree entry %q: reserved name", name)
	case strings.ContainsRune(name, '/'):
		return fmt.Errorf("tree entry %q: name contains '/'", name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("tree entry %q: name contains NUL", name)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: tree entry %q: name is not valid UTF-8", ErrSerialization, name)
	}
	return nil
}

// Lookup finds the entry called name.
func (t *Tree) Lookup(name string) (TreeEntry, bool) {
	i := sort.Search(len(t.Entries), func(i int) bool { return t.Entries[i].Name >= name })
	if i < len(t.Entries) && t.Entries[i].Name == name {
		return t.Entries[i], true
	}
	return TreeEntry{}, false
}

// Entry returns the canonical envelope for t.
func (t *Tree) Entry() (*Entry, error) {
	for _, e := range t.Entries {
		if !utf8.ValidString(e.Name) {
			return nil, fmt.Errorf("%w: tree entry %q: name is not valid UTF-8", ErrSerialization, e.Name)
		}
	}
	return newEntry(KindTree, Tree{Entries: sortedEntries(t.Entries)})
}

// DecodeTree decodes a tree entry. Structural checks are left to Validate so
// that a stored but malformed tree can still be inspected.
func DecodeTree(e *Entry) (*Tree, error) {
	var t Tree
	if err := e.decodePayload(KindTree, &t); err != nil {
		return nil, err
	}
	if t.Entries == nil {
		t.Entries = []TreeEntry{}
	}
	return &t, nil
}
