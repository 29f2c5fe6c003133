package content

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/cache"
	"git.home.luguber.info/inful/sitebuilder/internal/changes"
	"git.home.luguber.info/inful/sitebuilder/internal/model"
)

func newTestRunner(t *testing.T) (*Runner, string) {
	t.Helper()
	root := t.TempDir()
	return &Runner{
		Loaders:     []Loader{&LocalLoader{Root: root}},
		Renderer:    NewRenderer(),
		Store:       cache.New(t.TempDir()),
		Concurrency: 2,
	}, root
}

func page(url string, blocks map[string]any) model.Page {
	p := model.Page{"url": url}
	for k, v := range blocks {
		p[k] = v
	}
	return p
}

func TestRunnerFetchesAndReuses(t *testing.T) {
	r, root := newTestRunner(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# A\n"), 0o600))

	mk := func() []model.Page {
		return []model.Page{
			page("/a", map[string]any{
				"en": map[string]any{"title": "A", "published": true, "sourceUrl": "a.md"},
				"ru": map[string]any{"title": "A", "published": false, "sourceUrl": "a.md"},
			}),
			page("/b", map[string]any{"en": map[string]any{"title": "B", "published": true}}),
		}
	}

	ledger := changes.NewLedger()
	ledger.Pages().AddAdded(changes.PageChange("/a"))
	pages := mk()
	stats, err := r.Run(context.Background(), pages, []string{"en", "ru"}, ledger)
	require.NoError(t, err)
	assert.Equal(t, Stats{Fetched: 1}, stats)

	en, _ := pages[0].Lang("en")
	assert.Equal(t, "content/en/a/index.html", en.ContentFile())
	assert.NotEmpty(t, en[model.KeyContentFingerprint])
	ru, _ := pages[0].Lang("ru")
	assert.Empty(t, ru.ContentFile())

	html, err := r.Store.ReadContent("/a", "en")
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1")

	// no changes on the second run: the cached render is reused
	again := mk()
	stats, err = r.Run(context.Background(), again, []string{"en", "ru"}, changes.NewLedger())
	require.NoError(t, err)
	assert.Equal(t, Stats{Reused: 1}, stats)
	en2, _ := again[0].Lang("en")
	assert.Equal(t, en[model.KeyContentFingerprint], en2[model.KeyContentFingerprint])
}

// memLoader serves sources from a map and does not revalidate.
type memLoader struct {
	mu    sync.Mutex
	data  map[string]string
	loads int
}

func (m *memLoader) Name() string { return "mem" }

func (m *memLoader) Match(sourceURL string) bool { return strings.HasPrefix(sourceURL, "mem://") }

func (m *memLoader) Load(_ context.Context, sourceURL string) (*Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	data, ok := m.data[sourceURL]
	if !ok {
		return nil, assert.AnError
	}
	return &Source{URL: sourceURL, Data: []byte(data)}, nil
}

func (m *memLoader) set(sourceURL, data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sourceURL] = data
}

func TestRunnerRerendersEditedLocalSource(t *testing.T) {
	r, root := newTestRunner(t)
	src := filepath.Join(root, "a.md")
	require.NoError(t, os.WriteFile(src, []byte("# A\n"), 0o600))
	pages := func() []model.Page {
		return []model.Page{page("/a", map[string]any{"en": map[string]any{"title": "A", "published": true, "sourceUrl": "a.md"}})}
	}

	first := pages()
	ledger := changes.NewLedger()
	ledger.Pages().AddAdded(changes.PageChange("/a"))
	_, err := r.Run(context.Background(), first, []string{"en"}, ledger)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(src, []byte("# Edited\n"), 0o600))
	second := pages()
	stats, err := r.Run(context.Background(), second, []string{"en"}, changes.NewLedger())
	require.NoError(t, err)
	assert.Equal(t, Stats{Fetched: 1}, stats)

	html, err := r.Store.ReadContent("/a", "en")
	require.NoError(t, err)
	assert.Contains(t, string(html), "Edited")
	en1, _ := first[0].Lang("en")
	en2, _ := second[0].Lang("en")
	assert.NotEqual(t, en1[model.KeyContentFingerprint], en2[model.KeyContentFingerprint])
}

func TestRunnerRefreshRereadsRemoteSources(t *testing.T) {
	mem := &memLoader{data: map[string]string{"mem://a": "# A\n"}}
	r := &Runner{Loaders: []Loader{mem}, Renderer: NewRenderer(), Store: cache.New(t.TempDir()), Concurrency: 2}
	pages := func() []model.Page {
		return []model.Page{page("/a", map[string]any{"en": map[string]any{"title": "A", "published": true, "sourceUrl": "mem://a"}})}
	}
	ledger := changes.NewLedger()
	ledger.Pages().AddAdded(changes.PageChange("/a"))
	_, err := r.Run(context.Background(), pages(), []string{"en"}, ledger)
	require.NoError(t, err)
	require.Equal(t, 1, mem.loads)

	// unchanged page, no refresh: the loader is not consulted
	mem.set("mem://a", "# Remote edit\n")
	stats, err := r.Run(context.Background(), pages(), []string{"en"}, changes.NewLedger())
	require.NoError(t, err)
	assert.Equal(t, Stats{Reused: 1}, stats)
	assert.Equal(t, 1, mem.loads)

	r.Refresh = true
	stats, err = r.Run(context.Background(), pages(), []string{"en"}, changes.NewLedger())
	require.NoError(t, err)
	assert.Equal(t, Stats{Fetched: 1}, stats)
	html, err := r.Store.ReadContent("/a", "en")
	require.NoError(t, err)
	assert.Contains(t, string(html), "Remote edit")

	// same source again: read, but the render is kept
	before, err := os.Stat(r.Store.ContentPath("/a", "en"))
	require.NoError(t, err)
	stats, err = r.Run(context.Background(), pages(), []string{"en"}, changes.NewLedger())
	require.NoError(t, err)
	assert.Equal(t, Stats{Reused: 1}, stats)
	assert.Equal(t, 3, mem.loads)
	after, err := os.Stat(r.Store.ContentPath("/a", "en"))
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())

	// a refresh that fails keeps serving the cached render
	mem.mu.Lock()
	delete(mem.data, "mem://a")
	mem.mu.Unlock()
	stats, err = r.Run(context.Background(), pages(), []string{"en"}, changes.NewLedger())
	require.NoError(t, err)
	assert.Equal(t, Stats{Stale: 1}, stats)
}

func TestRunnerFailuresDoNotAbort(t *testing.T) {
	r, root := newTestRunner(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "ok.md"), []byte("ok\n"), 0o600))

	pages := []model.Page{
		page("/missing", map[string]any{"en": map[string]any{"title": "M", "published": true, "sourceUrl": "missing.md"}}),
		page("/ok", map[string]any{"en": map[string]any{"title": "O", "published": true, "sourceUrl": "ok.md"}}),
		page("/remote", map[string]any{"en": map[string]any{"title": "R", "published": true, "sourceUrl": "https://gitlab.com/x.md"}}),
	}
	stats, err := r.Run(context.Background(), pages, []string{"en"}, changes.NewLedger())
	require.NoError(t, err)
	assert.Equal(t, Stats{Fetched: 1, Failed: 2}, stats)

	missing, _ := pages[0].Lang("en")
	assert.Empty(t, missing.ContentFile())
}

func TestRunnerFallsBackToStaleRender(t *testing.T) {
	r, _ := newTestRunner(t)
	_, err := r.Store.WriteContent("/gone", "en", []byte("<p>old</p>"))
	require.NoError(t, err)
	require.NoError(t, r.Store.WriteFingerprint("/gone", "en", "fp-old"))

	ledger := changes.NewLedger()
	ledger.Pages().AddModified(changes.PageChange("/gone"))
	pages := []model.Page{page("/gone", map[string]any{"en": map[string]any{"title": "G", "published": true, "sourceUrl": "gone.md"}})}

	stats, err := r.Run(context.Background(), pages, []string{"en"}, ledger)
	require.NoError(t, err)
	assert.Equal(t, Stats{Stale: 1}, stats)
	en, _ := pages[0].Lang("en")
	assert.Equal(t, "content/en/gone/index.html", en.ContentFile())
	assert.Equal(t, "fp-old", en[model.KeyContentFingerprint])
}

func TestRunnerCancelled(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pages := []model.Page{page("/a", map[string]any{"en": map[string]any{"title": "A", "published": true, "sourceUrl": "a.md"}})}
	_, err := r.Run(ctx, pages, []string{"en"}, changes.NewLedger())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunOrderedKeepsOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}
	res := runOrdered(context.Background(), items, 3, func(_ context.Context, n int) (int, error) {
		return n * 10, nil
	})
	require.Len(t, res, len(items))
	for i, n := range items {
		assert.Equal(t, n*10, res[i].Value)
	}
	assert.Nil(t, runOrdered(context.Background(), []int{}, 2, func(context.Context, int) (int, error) { return 0, nil }))
}
