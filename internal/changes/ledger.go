// Package changes records what a model merge (and later collaborators) found
// added, modified or removed, grouped into the pages, docs and libraries categories.
package changes

import (
	"encoding/json"

	"git.home.luguber.info/inful/sitebuilder/internal/util/sets"
)

// CategoryName names a change category.
type CategoryName string

const (
	Pages     CategoryName = "pages"
	Docs      CategoryName = "docs"
	Libraries CategoryName = "libraries"
)

// Kind is the kind of change recorded for an entry.
type Kind string

const (
	Added    Kind = "added"
	Modified Kind = "modified"
	Removed  Kind = "removed"
)

// Entry types used in Change.Type.
const (
	TypePage    = "page"
	TypeDoc     = "doc"
	TypeLibrary = "library"
)

// Change is one ledger entry. Page entries only carry Type and URL; docs and
// libraries descriptors add their own Details (lib, version, ...).
type Change struct {
	Type    string            `json:"type"`
	URL     string            `json:"url,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// PageChange returns the descriptor for a page url.
func PageChange(url string) Change {
	return Change{Type: TypePage, URL: url}
}

// Category holds the ordered added, modified and removed entries of one category.
type Category struct {
	added    []Change
	modified []Change
	removed  []Change
}

// AddAdded appends an added entry.
func (c *Category) AddAdded(ch Change) { c.added = append(c.added, ch) }

// AddModified appends a modified entry.
func (c *Category) AddModified(ch Change) { c.modified = append(c.modified, ch) }

// AddRemoved appends a removed entry.
func (c *Category) AddRemoved(ch Change) { c.removed = append(c.removed, ch) }

// Add appends ch under kind.
func (c *Category) Add(kind Kind, ch Change) {
	switch kind {
	case Added:
		c.AddAdded(ch)
	case Modified:
		c.AddModified(ch)
	case Removed:
		c.AddRemoved(ch)
	}
}

// Added returns a copy of the added entries.
func (c *Category) Added() []Change { return copyChanges(c.added) }

// Modified returns a copy of the modified entries.
func (c *Category) Modified() []Change { return copyChanges(c.modified) }

// Removed returns a copy of the removed entries.
func (c *Category) Removed() []Change { return copyChanges(c.removed) }

// Of returns a copy of the entries of kind.
func (c *Category) Of(kind Kind) []Change {
	switch kind {
	case Added:
		return c.Added()
	case Modified:
		return c.Modified()
	case Removed:
		return c.Removed()
	default:
		return nil
	}
}

// AreModified reports whether the category has any entry.
func (c *Category) AreModified() bool {
	return len(c.added) > 0 || len(c.modified) > 0 || len(c.removed) > 0
}

// Ledger groups the change categories of one build.
type Ledger struct {
	pages     Category
	docs      Category
	libraries Category
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Pages returns the pages category.
func (l *Ledger) Pages() *Category { return &l.pages }

// Docs returns the docs category.
func (l *Ledger) Docs() *Category { return &l.docs }

// Libraries returns the libraries category.
func (l *Ledger) Libraries() *Category { return &l.libraries }

// Category returns the category named name, or nil for an unknown name.
func (l *Ledger) Category(name CategoryName) *Category {
	switch name {
	case Pages:
		return &l.pages
	case Docs:
		return &l.docs
	case Libraries:
		return &l.libraries
	default:
		return nil
	}
}

// AreModified reports whether any category holds at least one entry.
func (l *Ledger) AreModified() bool {
	return l.pages.AreModified() || l.docs.AreModified() || l.libraries.AreModified()
}

// PageURLs returns the set of page urls recorded under any of kinds.
func (l *Ledger) PageURLs(kinds ...Kind) sets.Set[string] {
	out := sets.New[string]()
	for _, kind := range kinds {
		for _, ch := range l.pages.Of(kind) {
			out.Add(ch.URL)
		}
	}
	return out
}

// Counts is the number of entries per kind in one category.
type Counts struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
}

// Total returns the number of entries.
func (c Counts) Total() int { return c.Added + c.Modified + c.Removed }

// Summary returns per-category entry counts.
func (l *Ledger) Summary() map[CategoryName]Counts {
	out := make(map[CategoryName]Counts, 3)
	for _, name := range []CategoryName{Pages, Docs, Libraries} {
		c := l.Category(name)
		out[name] = Counts{Added: len(c.added), Modified: len(c.modified), Removed: len(c.removed)}
	}
	return out
}

type categoryJSON struct {
	Added    []Change `json:"added"`
	Modified []Change `json:"modified"`
	Removed  []Change `json:"removed"`
}

// MarshalJSON encodes the ledger as {pages: {added, modified, removed}, docs: ..., libraries: ...}.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	out := make(map[CategoryName]categoryJSON, 3)
	for _, name := range []CategoryName{Pages, Docs, Libraries} {
		c := l.Category(name)
		out[name] = categoryJSON{
			Added:    nonNil(c.added),
			Modified: nonNil(c.modified),
			Removed:  nonNil(c.removed),
		}
	}
	return json.Marshal(out)
}

func copyChanges(in []Change) []Change {
	out := make([]Change, len(in))
	for i, ch := range in {
		out[i] = ch
		if ch.Details != nil {
			d := make(map[string]string, len(ch.Details))
			for k, v := range ch.Details {
				d[k] = v
			}
			out[i].Details = d
		}
	}
	return out
}

func nonNil(in []Change) []Change {
	if in == nil {
		return []Change{}
	}
	return in
}
