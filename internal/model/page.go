// Package model defines the page record and page collection I/O.
//
// A Page is an open record: the keys the pipeline knows about (url, oldUrls,
// view and one block per language) are read through accessors, while every
// other key (contentFile, header, meta, breadcrumbs, ...) is carried along
// untouched so later stages never lose each other's output.
package model

import (
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/jsonvalue"
)

// Well-known page keys.
const (
	KeyURL     = "url"
	KeyOldURLs = "oldUrls"
	KeyView    = "view"

	// DefaultView is the presentation template applied to pages without a view.
	DefaultView = "post"
)

// Well-known language block keys.
const (
	KeyTitle              = "title"
	KeyPublished          = "published"
	KeyAuthors            = "authors"
	KeyTranslators        = "translators"
	KeyTags               = "tags"
	KeySourceURL          = "sourceUrl"
	KeyContentFile        = "contentFile"
	KeyContentFingerprint = "contentFingerprint"
)

// Page is one page of the site model, keyed by its url.
type Page map[string]any

// LangBlock is the per-language metadata object of a page.
type LangBlock map[string]any

// URL returns the page url or "" when absent or not a string.
func (p Page) URL() string {
	u, _ := p[KeyURL].(string)
	return u
}

// HasURL reports whether the page carries a non-empty string url.
func (p Page) HasURL() bool {
	return p.URL() != ""
}

// View returns the page view, or DefaultView when unset.
func (p Page) View() string {
	if v, ok := p[KeyView].(string); ok && v != "" {
		return v
	}
	return DefaultView
}

// OldURLs returns the redirect aliases of the page. Non-string entries are skipped.
func (p Page) OldURLs() []string {
	return Strings(p[KeyOldURLs])
}

// Lang returns the language block for code. ok is false when the block is
// missing or is not an object.
func (p Page) Lang(code string) (LangBlock, bool) {
	switch b := p[code].(type) {
	case map[string]any:
		return LangBlock(b), true
	case LangBlock:
		return b, true
	default:
		return nil, false
	}
}

// SetLang stores block as the language block for code.
func (p Page) SetLang(code string, block LangBlock) {
	p[code] = map[string]any(block)
}

// Clone returns a deep copy of the page.
func (p Page) Clone() Page {
	return Page(jsonvalue.CloneMap(p))
}

// Title returns the block title, or "" when absent or not a string.
func (b LangBlock) Title() string {
	t, _ := b[KeyTitle].(string)
	return t
}

// HasTitle reports whether the block carries a non-blank string title.
func (b LangBlock) HasTitle() bool {
	return strings.TrimSpace(b.Title()) != ""
}

// Published reports whether the block is published. Only a boolean true counts.
func (b LangBlock) Published() bool {
	p, _ := b[KeyPublished].(bool)
	return p
}

// SourceURL returns the content source location of the block.
func (b LangBlock) SourceURL() string {
	s, _ := b[KeySourceURL].(string)
	return s
}

// ContentFile returns the cache-relative path of the rendered content.
func (b LangBlock) ContentFile() string {
	s, _ := b[KeyContentFile].(string)
	return s
}

// Tags returns the block tags.
func (b LangBlock) Tags() []string { return Strings(b[KeyTags]) }

// Authors returns the block authors.
func (b LangBlock) Authors() []string { return Strings(b[KeyAuthors]) }

// Strings converts a decoded JSON array into its string elements.
func Strings(v any) []string {
	switch tv := v.(type) {
	case []string:
		out := make([]string, len(tv))
		copy(out, tv)
		return out
	case []any:
		out := make([]string, 0, len(tv))
		for _, e := range tv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// URLs returns the urls of pages in order.
func URLs(pages []Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.URL()
	}
	return out
}
