package sitemap

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/model"
)

func TestBuild(t *testing.T) {
	pages := []model.Page{
		{"url": "/", "en": map[string]any{"published": true}, "ru": map[string]any{"published": true}},
		{"url": "/draft", "en": map[string]any{"published": false}},
		{"url": "/ru-only", "ru": map[string]any{"published": true}},
		{"url": "/none"},
	}
	set := Build(pages, []string{"en", "ru"}, "https://acme.dev", Options{ChangeFreq: "weekly", Priority: 0.5})

	require.Len(t, set.URLs, 3)
	assert.Equal(t, URL{Loc: "https://acme.dev/", ChangeFreq: "weekly", Priority: "0.5"}, set.URLs[0])
	assert.Equal(t, "https://acme.dev/?lang=ru", set.URLs[1].Loc)
	assert.Equal(t, "https://acme.dev/ru-only?lang=ru", set.URLs[2].Loc)
}

func TestBuildEmpty(t *testing.T) {
	set := Build(nil, []string{"en"}, "", Options{})
	data, err := Marshal(set)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), xml.Header))
	assert.Contains(t, string(data), `<urlset xmlns="`+Namespace+`"></urlset>`)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "sitemap.xml")
	set := Build([]model.Page{{"url": "/a&b", "en": map[string]any{"published": true}}}, []string{"en"}, "https://acme.dev", Options{})
	require.NoError(t, Write(path, set))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded URLSet
	require.NoError(t, xml.Unmarshal(data, &decoded))
	require.Len(t, decoded.URLs, 1)
	assert.Equal(t, "https://acme.dev/a&b", decoded.URLs[0].Loc)
	assert.Contains(t, string(data), "a&amp;b")
	assert.NotContains(t, string(data), "<priority>")
}
