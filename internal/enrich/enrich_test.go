package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/model"
)

func fixture() []model.Page {
	return []model.Page{
		{"url": "/", "view": "home", "en": map[string]any{"title": "Welcome", "published": true}},
		{"url": "/docs", "view": "section", "en": map[string]any{"title": " ", "published": false}},
		{"url": "/docs/getting-started/intro", "view": "post",
			"en": map[string]any{
				"title": "Intro", "published": true, "description": "First steps",
				"tags": []any{"go", "docs"}, "authors": []any{"ann", map[string]any{"name": "bob"}},
			},
			"ru": map[string]any{"title": "Введение", "published": false},
		},
	}
}

var siteCtx = Context{Languages: []string{"en", "ru"}, SiteTitle: "Acme", BaseURL: "https://acme.dev"}

func run(t *testing.T, pages []model.Page) []model.Page {
	t.Helper()
	out, err := Chain(context.Background(), pages, siteCtx, Default()...)
	require.NoError(t, err)
	return out
}

func TestHeaderTitleAndMeta(t *testing.T) {
	out := run(t, fixture())

	en, _ := out[2].Lang("en")
	header := en[KeyHeader].(map[string]any)
	assert.Equal(t, "Intro / Acme", header[KeyHeaderTitle])
	assert.Equal(t, map[string]any{
		"description": "First steps",
		"keywords":    "go, docs",
		"og:title":    "Intro",
		"og:url":      "https://acme.dev/docs/getting-started/intro",
		"og:type":     "article",
	}, header[KeyHeaderMeta])

	home, _ := out[0].Lang("en")
	assert.Equal(t, "website", home[KeyHeader].(map[string]any)[KeyHeaderMeta].(map[string]any)["og:type"])
}

func TestHeaderTitleWithoutSiteTitle(t *testing.T) {
	out, err := Chain(context.Background(), fixture(), Context{Languages: []string{"en"}}, HeaderTitle())
	require.NoError(t, err)
	en, _ := out[0].Lang("en")
	assert.Equal(t, "Welcome", en[KeyHeader].(map[string]any)[KeyHeaderTitle])
}

func TestUnpublishedBlocksAreUntouched(t *testing.T) {
	out := run(t, fixture())

	ru, _ := out[2].Lang("ru")
	assert.NotContains(t, ru, KeyHeader)
	assert.NotContains(t, ru, KeyBreadcrumbs)
	docs, _ := out[1].Lang("en")
	assert.NotContains(t, docs, KeyHeader)
	assert.NotContains(t, out[1], KeySearchMeta)
}

func TestBreadcrumbs(t *testing.T) {
	out := run(t, fixture())
	en, _ := out[2].Lang("en")
	assert.Equal(t, []any{
		map[string]any{"url": "/", "title": "Welcome"},
		map[string]any{"url": "/docs", "title": "Docs"},
		map[string]any{"url": "/docs/getting-started/intro", "title": "Intro"},
	}, en[KeyBreadcrumbs])

	home, _ := out[0].Lang("en")
	assert.Equal(t, []any{map[string]any{"url": "/", "title": "Welcome"}}, home[KeyBreadcrumbs])
}

func TestTrailSkipsMissingAncestorsAndTrailingSlash(t *testing.T) {
	byURL := map[string]model.Page{
		"/guides/advanced": {"url": "/guides/advanced/", "en": map[string]any{}},
	}
	crumbs := Trail("/guides/advanced/", "en", byURL)
	assert.Equal(t, []Crumb{{URL: "/guides/advanced/", Title: "Advanced"}}, crumbs)
}

func TestSegmentLabel(t *testing.T) {
	assert.Equal(t, "Getting Started", SegmentLabel("/docs/getting-started", "en"))
	assert.Equal(t, "Api Reference", SegmentLabel("/api_reference", "en"))
	assert.Equal(t, "Home", SegmentLabel("/", "en"))
}

func TestSearchMeta(t *testing.T) {
	out := run(t, fixture())
	meta := out[2][KeySearchMeta].(map[string]any)
	assert.Equal(t, map[string]any{
		"breadcrumbs": []any{"Welcome", "Docs", "Intro"},
		"fields":      map[string]any{"type": "post", "keywords": []any{"go", "docs"}},
		"authors":     []any{"ann", map[string]any{"name": "bob"}},
	}, meta["en"])
	assert.NotContains(t, meta, "ru")
}

func TestChainDoesNotMutateInput(t *testing.T) {
	in := fixture()
	_ = run(t, in)
	en, _ := in[2].Lang("en")
	assert.NotContains(t, en, KeyHeader)
	assert.NotContains(t, in[2], KeySearchMeta)
}

func TestChainStopsOnError(t *testing.T) {
	failing := Transform{Name: "fail", Apply: func([]model.Page, Context) ([]model.Page, error) {
		return nil, assert.AnError
	}}
	_, err := Chain(context.Background(), fixture(), siteCtx, failing, HeaderTitle())
	assert.ErrorIs(t, err, assert.AnError)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Chain(ctx, fixture(), siteCtx, HeaderTitle())
	assert.ErrorIs(t, err, context.Canceled)
}
