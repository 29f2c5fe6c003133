package enrich

import (
	"git.home.luguber.info/inful/sitebuilder/internal/jsonvalue"
	"git.home.luguber.info/inful/sitebuilder/internal/model"
)

// SearchMeta writes meta.<lang> for the search index. It reads breadcrumbs,
// so it must run after Breadcrumbs.
func SearchMeta() Transform {
	return Transform{Name: "search_meta", Apply: func(pages []model.Page, c Context) ([]model.Page, error) {
		eachPublished(pages, c.Languages, func(p model.Page, lang string, block model.LangBlock) {
			var titles []any
			if crumbs, ok := block[KeyBreadcrumbs].([]any); ok {
				for _, cr := range crumbs {
					if m, ok := cr.(map[string]any); ok {
						titles = append(titles, m["title"])
					}
				}
			}
			if titles == nil {
				titles = []any{}
			}
			objectAt(p, KeySearchMeta)[lang] = map[string]any{
				"breadcrumbs": titles,
				"fields": map[string]any{
					"type":     p.View(),
					"keywords": toAny(block.Tags()),
				},
				"authors": authors(block),
			}
		})
		return pages, nil
	}}
}

// authors keeps author entries as authored; they may be strings or objects.
func authors(block model.LangBlock) []any {
	if list, ok := block[model.KeyAuthors].([]any); ok {
		return jsonvalue.Clone(list).([]any)
	}
	return toAny(block.Authors())
}
