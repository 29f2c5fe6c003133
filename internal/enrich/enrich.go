// Package enrich derives presentation fields (headers, breadcrumbs, search
// metadata) for published language blocks.
package enrich

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/model"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
)

// Derived keys written by the transforms.
const (
	KeyHeader      = "header"
	KeyHeaderTitle = "title"
	KeyHeaderMeta  = "meta"
	KeyBreadcrumbs = "breadcrumbs"
	KeySearchMeta  = "meta"
)

// Context is the site-level input shared by all transforms.
type Context struct {
	Languages []string
	SiteTitle string
	BaseURL   string
}

// Transform is a named enrichment step. Apply may modify pages in place.
type Transform struct {
	Name  string
	Apply func(pages []model.Page, c Context) ([]model.Page, error)
}

// Default returns the standard transforms in execution order.
func Default() []Transform {
	return []Transform{HeaderTitle(), HeaderMeta(), Breadcrumbs(), SearchMeta()}
}

// Chain runs transforms in order over a deep copy of pages.
func Chain(ctx context.Context, pages []model.Page, c Context, transforms ...Transform) ([]model.Page, error) {
	out := make([]model.Page, len(pages))
	for i, p := range pages {
		out[i] = p.Clone()
	}
	for _, t := range transforms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		var err error
		if out, err = t.Apply(out, c); err != nil {
			return nil, err
		}
		observability.DebugContext(ctx, "Enrichment applied",
			logfields.Stage(t.Name), logfields.Pages(len(out)), logfields.Duration(time.Since(start)))
	}
	return out, nil
}

// eachPublished calls fn for every published language block of every page.
func eachPublished(pages []model.Page, languages []string, fn func(p model.Page, lang string, block model.LangBlock)) {
	for _, p := range pages {
		for _, lang := range languages {
			if block, ok := p.Lang(lang); ok && block.Published() {
				fn(p, lang, block)
			}
		}
	}
}

func objectAt(m map[string]any, key string) map[string]any {
	if obj, ok := m[key].(map[string]any); ok {
		return obj
	}
	obj := map[string]any{}
	m[key] = obj
	return obj
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
