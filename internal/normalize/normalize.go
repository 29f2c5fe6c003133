// Package normalize applies the default-field policy to a merged page model.
package normalize

import (
	"git.home.luguber.info/inful/sitebuilder/internal/model"
)

// Normalize returns copies of pages with required fields defaulted:
//   - oldUrls: [] when absent or not an array
//   - view: "post" when absent or not a non-empty string
//   - one object block per language in languages; a missing or non-object block becomes {}
//   - published: true unless explicitly false, and always false without a title
//   - authors, translators, tags: [] when absent or not arrays
//
// Applying Normalize to its own output changes nothing.
func Normalize(pages []model.Page, languages []string) []model.Page {
	out := make([]model.Page, len(pages))
	for i, p := range pages {
		out[i] = Page(p, languages)
	}
	return out
}

// Page normalizes a single page, returning a copy.
func Page(p model.Page, languages []string) model.Page {
	page := p.Clone()
	if page == nil {
		page = model.Page{}
	}

	if !isArray(page[model.KeyOldURLs]) {
		page[model.KeyOldURLs] = []any{}
	}
	if v, ok := page[model.KeyView].(string); !ok || v == "" {
		page[model.KeyView] = model.DefaultView
	}

	for _, lang := range languages {
		block, ok := page.Lang(lang)
		if !ok {
			block = model.LangBlock{}
		}
		normalizeLang(block)
		page.SetLang(lang, block)
	}
	return page
}

func normalizeLang(block model.LangBlock) {
	published := true
	if v, ok := block[model.KeyPublished].(bool); ok && !v {
		published = false
	}
	// A page without a title is never publishable.
	if !block.HasTitle() {
		published = false
	}
	block[model.KeyPublished] = published

	for _, key := range []string{model.KeyAuthors, model.KeyTranslators, model.KeyTags} {
		if !isArray(block[key]) {
			block[key] = []any{}
		}
	}
}

func isArray(v any) bool {
	switch v.(type) {
	case []any, []string:
		return true
	default:
		return false
	}
}
