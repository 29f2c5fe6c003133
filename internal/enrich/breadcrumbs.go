package enrich

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitebuilder/internal/model"
)

// Crumb is one breadcrumb entry.
type Crumb struct {
	URL   string
	Title string
}

// Breadcrumbs sets breadcrumbs on each published block: one {url, title} for
// every ancestor present in the model, root first, ending with the page.
func Breadcrumbs() Transform {
	return Transform{Name: "breadcrumbs", Apply: func(pages []model.Page, c Context) ([]model.Page, error) {
		byURL := make(map[string]model.Page, len(pages))
		for _, p := range pages {
			byURL[canonical(p.URL())] = p
		}
		eachPublished(pages, c.Languages, func(p model.Page, lang string, block model.LangBlock) {
			crumbs := Trail(p.URL(), lang, byURL)
			list := make([]any, len(crumbs))
			for i, cr := range crumbs {
				list[i] = map[string]any{"url": cr.URL, "title": cr.Title}
			}
			block[KeyBreadcrumbs] = list
		})
		return pages, nil
	}}
}

// Trail computes the breadcrumb trail of url in lang. byURL is keyed by
// canonical URL (no trailing slash, "/" for root).
func Trail(url, lang string, byURL map[string]model.Page) []Crumb {
	var crumbs []Crumb
	for _, prefix := range ancestors(canonical(url)) {
		p, ok := byURL[prefix]
		if !ok {
			continue
		}
		crumbs = append(crumbs, Crumb{URL: p.URL(), Title: crumbTitle(p, prefix, lang)})
	}
	return crumbs
}

func crumbTitle(p model.Page, prefix, lang string) string {
	if block, ok := p.Lang(lang); ok && block.HasTitle() {
		return strings.TrimSpace(block.Title())
	}
	return SegmentLabel(prefix, lang)
}

// SegmentLabel turns the last URL segment into a title ("getting-started" -> "Getting Started").
func SegmentLabel(url, lang string) string {
	seg := url[strings.LastIndex(url, "/")+1:]
	if seg == "" {
		return "Home"
	}
	seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	return cases.Title(language.Make(lang)).String(seg)
}

func canonical(url string) string {
	u := strings.TrimRight(url, "/")
	if u == "" {
		return "/"
	}
	return u
}

// ancestors returns "/", then each prefix of url, ending with url itself.
func ancestors(url string) []string {
	out := []string{"/"}
	if url == "/" {
		return out
	}
	segs := strings.Split(strings.Trim(url, "/"), "/")
	prefix := ""
	for _, s := range segs {
		prefix += "/" + s
		out = append(out, prefix)
	}
	return out
}
