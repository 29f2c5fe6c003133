// Package sitemap builds sitemap.xml (protocol 0.9) from published pages.
package sitemap

import (
	"encoding/xml"
	"net/url"
	"strconv"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/model"
)

// Namespace is the sitemap protocol namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// URLSet is the sitemap document root.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// URL is a single sitemap entry.
type URL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Options are entry attributes applied to every URL.
type Options struct {
	ChangeFreq string
	Priority   float64
}

// Build emits one entry per published page and language. The first language
// is the site default; the others get a ?lang= query.
func Build(pages []model.Page, languages []string, baseURL string, opts Options) *URLSet {
	set := &URLSet{XMLNS: Namespace, URLs: []URL{}}
	priority := ""
	if opts.Priority > 0 {
		priority = strconv.FormatFloat(opts.Priority, 'f', -1, 64)
	}
	for _, p := range pages {
		for i, lang := range languages {
			block, ok := p.Lang(lang)
			if !ok || !block.Published() {
				continue
			}
			loc := baseURL + p.URL()
			if i > 0 {
				loc += "?" + url.Values{"lang": []string{lang}}.Encode()
			}
			set.URLs = append(set.URLs, URL{Loc: loc, ChangeFreq: opts.ChangeFreq, Priority: priority})
		}
	}
	return set
}

// Marshal encodes set with the XML header.
func Marshal(set *URLSet) ([]byte, error) {
	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to encode sitemap").Build()
	}
	out := append([]byte(xml.Header), data...)
	return append(out, '\n'), nil
}

// Write encodes set to path atomically.
func Write(path string, set *URLSet) error {
	data, err := Marshal(set)
	if err != nil {
		return err
	}
	return model.WriteFileAtomic(path, data)
}
