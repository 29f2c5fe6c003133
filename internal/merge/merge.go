// Package merge reconciles the previous (cached) page model with the newly
// authored one.
//
// Pages are matched by url. A url only in the new model is added, a url only
// in the old model is removed, and a url in both is unchanged when the two
// records are structurally equal and modified otherwise. Modified pages are
// the new record deep-merged over the old one, so fields produced by earlier
// builds survive unless the new model supplies the same key.
//
// Merge is a pure function: it keeps no package state, never mutates its
// arguments and returns pages that share no memory with them.
package merge

import (
	"git.home.luguber.info/inful/sitebuilder/internal/changes"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/jsonvalue"
	"git.home.luguber.info/inful/sitebuilder/internal/model"
	"git.home.luguber.info/inful/sitebuilder/internal/util/sets"
)

// Result is the output of Merge.
type Result struct {
	// Pages is the merged collection: added, then unchanged, then modified.
	Pages []model.Page
	// Changes has its pages category populated; docs and libraries are left empty.
	Changes *changes.Ledger

	stats Stats
}

// Stats counts pages per classification.
type Stats struct {
	Added     int
	Modified  int
	Removed   int
	Unchanged int
}

// Stats returns the per-classification page counts.
func (r *Result) Stats() Stats { return r.stats }

// keyed is a url -> page index built in input order. A url seen twice keeps
// the position of its first appearance and the record of its last.
type keyed struct {
	urls  *sets.Ordered[string]
	pages map[string]model.Page
}

func index(pages []model.Page, which string) (*keyed, error) {
	k := &keyed{urls: sets.NewOrdered[string](), pages: make(map[string]model.Page, len(pages))}
	for i, p := range pages {
		if !p.HasURL() {
			return nil, errors.ValidationError("page is missing url").
				WithContext("model", which).
				WithContext("index", i).
				Build()
		}
		u := p.URL()
		k.urls.Add(u)
		k.pages[u] = p
	}
	return k, nil
}

// Merge reconciles oldPages with newPages.
//
// Every page in both inputs must carry a non-empty string url; otherwise the
// whole merge fails with a validation error and no result. Duplicate urls in
// one input are not an error: the later record wins.
func Merge(oldPages, newPages []model.Page) (*Result, error) {
	oldIdx, err := index(oldPages, "old")
	if err != nil {
		return nil, err
	}
	newIdx, err := index(newPages, "new")
	if err != nil {
		return nil, err
	}

	ledger := changes.NewLedger()
	var added, unchanged, modified []model.Page
	var stats Stats

	for _, u := range newIdx.urls.Values() {
		newPage := newIdx.pages[u]
		oldPage, existed := oldIdx.pages[u]
		switch {
		case !existed:
			added = append(added, newPage.Clone())
			ledger.Pages().AddAdded(changes.PageChange(u))
			stats.Added++
		case jsonvalue.Equal(map[string]any(oldPage), map[string]any(newPage)):
			unchanged = append(unchanged, oldPage.Clone())
			stats.Unchanged++
		default:
			modified = append(modified, model.Page(jsonvalue.Merge(oldPage, newPage)))
			ledger.Pages().AddModified(changes.PageChange(u))
			stats.Modified++
		}
	}

	for _, u := range oldIdx.urls.Values() {
		if !newIdx.urls.Has(u) {
			ledger.Pages().AddRemoved(changes.PageChange(u))
			stats.Removed++
		}
	}

	pages := make([]model.Page, 0, len(added)+len(unchanged)+len(modified))
	pages = append(pages, added...)
	pages = append(pages, unchanged...)
	pages = append(pages, modified...)

	return &Result{Pages: pages, Changes: ledger, stats: stats}, nil
}
