package changes

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Describe renders the human-readable line for one entry, e.g.
// "Page with url: /docs/ was added".
func Describe(kind Kind, ch Change) string {
	switch ch.Type {
	case TypeLibrary:
		return fmt.Sprintf("Library %s version %s was %s", ch.Details["lib"], ch.Details["version"], kind)
	case TypeDoc:
		return fmt.Sprintf("Doc with url: %s was %s", ch.URL, kind)
	default:
		return fmt.Sprintf("Page with url: %s was %s", ch.URL, kind)
	}
}

// Lines returns the Describe line of every entry, category by category, in
// added, modified, removed order.
func (l *Ledger) Lines() []string {
	var out []string
	for _, name := range []CategoryName{Pages, Docs, Libraries} {
		c := l.Category(name)
		for _, kind := range []Kind{Added, Modified, Removed} {
			for _, ch := range c.Of(kind) {
				out = append(out, Describe(kind, ch))
			}
		}
	}
	return out
}

// Log writes one info record per entry.
func (l *Ledger) Log(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, name := range []CategoryName{Pages, Docs, Libraries} {
		c := l.Category(name)
		for _, kind := range []Kind{Added, Modified, Removed} {
			for _, ch := range c.Of(kind) {
				logger.Info(Describe(kind, ch),
					logfields.Category(string(name)),
					logfields.Change(string(kind)),
					logfields.URL(ch.URL))
			}
		}
	}
}
