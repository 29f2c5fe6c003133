package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o640))
	}
}

func TestPublishCopiesTree(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "public")
	writeTree(t, src, map[string]string{
		"data.json":           "[]",
		"sitemap.xml":         "<urlset/>",
		"content/en/a.html":   "<p>a</p>",
		"content/ru/b/c.html": "<p>c</p>",
	})

	stats, err := Publish(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, Stats{Copied: 4}, stats)

	data, err := os.ReadFile(filepath.Join(dst, "content", "ru", "b", "c.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>c</p>", string(data))

	info, err := os.Stat(filepath.Join(dst, "data.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestPublishSkipsUnchangedFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "one", "b.txt": "two"})

	_, err := Publish(context.Background(), src, dst)
	require.NoError(t, err)

	later := time.Now().Add(time.Minute)
	require.NoError(t, os.WriteFile(filepath.Join(src, "b.txt"), []byte("TWO"), 0o640))
	require.NoError(t, os.Chtimes(filepath.Join(src, "b.txt"), later, later))

	stats, err := Publish(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, Stats{Copied: 1, Unchanged: 1}, stats)

	data, err := os.ReadFile(filepath.Join(dst, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "TWO", string(data))
}

func TestPublishNoop(t *testing.T) {
	src := t.TempDir()
	stats, err := Publish(context.Background(), src, "")
	require.NoError(t, err)
	assert.Zero(t, stats)

	stats, err = Publish(context.Background(), src, src+string(filepath.Separator))
	require.NoError(t, err)
	assert.Zero(t, stats)
}

func TestPublishMissingSource(t *testing.T) {
	_, err := Publish(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryPublish))
}

func TestPublishCancelled(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Publish(ctx, src, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
