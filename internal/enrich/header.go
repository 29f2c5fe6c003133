package enrich

import (
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/model"
)

// HeaderTitle sets header.title to "<page title> / <site title>".
func HeaderTitle() Transform {
	return Transform{Name: "header_title", Apply: func(pages []model.Page, c Context) ([]model.Page, error) {
		eachPublished(pages, c.Languages, func(_ model.Page, _ string, block model.LangBlock) {
			title := strings.TrimSpace(block.Title())
			if c.SiteTitle != "" {
				title += " / " + c.SiteTitle
			}
			objectAt(block, KeyHeader)[KeyHeaderTitle] = title
		})
		return pages, nil
	}}
}

// HeaderMeta sets header.meta with description, keywords and Open Graph fields.
func HeaderMeta() Transform {
	return Transform{Name: "header_meta", Apply: func(pages []model.Page, c Context) ([]model.Page, error) {
		eachPublished(pages, c.Languages, func(p model.Page, _ string, block model.LangBlock) {
			description, _ := block["description"].(string)
			ogType := "website"
			if p.View() == model.DefaultView {
				ogType = "article"
			}
			objectAt(block, KeyHeader)[KeyHeaderMeta] = map[string]any{
				"description": description,
				"keywords":    strings.Join(block.Tags(), ", "),
				"og:title":    strings.TrimSpace(block.Title()),
				"og:url":      c.BaseURL + p.URL(),
				"og:type":     ogType,
			}
		})
		return pages, nil
	}}
}
