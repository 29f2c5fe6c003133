package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
)

func TestParseGitHubURL(t *testing.T) {
	tests := []struct {
		raw  string
		want GitHubRef
		ok   bool
	}{
		{"https://github.com/acme/docs/blob/main/guides/intro.md", GitHubRef{"acme", "docs", "main", "guides/intro.md"}, true},
		{"https://github.com/acme/docs/tree/v1/guides", GitHubRef{"acme", "docs", "v1", "guides/README.md"}, true},
		{"https://github.com/acme/docs/tree/main", GitHubRef{"acme", "docs", "main", "README.md"}, true},
		{"https://github.com/acme/docs/blob/main", GitHubRef{}, false},
		{"https://github.com/acme/docs", GitHubRef{}, false},
		{"https://example.com/acme/docs/blob/main/x.md", GitHubRef{}, false},
		{"guides/intro.md", GitHubRef{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseGitHubURL(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func fastPolicy(retries int) retry.Policy {
	return retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, retries)
}

func TestGitHubLoaderFetchesRawContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/docs/contents/guides/intro.md", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github.raw+json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte("# Intro\n"))
	}))
	defer srv.Close()

	g := NewGitHubLoader(config.GitHubConfig{APIURL: srv.URL, Token: "secret"}, fastPolicy(0))
	src, err := g.Load(context.Background(), "https://github.com/acme/docs/blob/main/guides/intro.md")
	require.NoError(t, err)
	assert.Equal(t, "# Intro\n", string(src.Data))
	assert.Equal(t, "https://github.com/acme/docs/blob/main/guides/", src.LinkBase)
	assert.Equal(t, "https://raw.githubusercontent.com/acme/docs/main/guides/", src.AssetBase)
}

func TestGitHubLoaderRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	g := NewGitHubLoader(config.GitHubConfig{APIURL: srv.URL}, fastPolicy(2))
	src, err := g.Load(context.Background(), "https://github.com/acme/docs/blob/main/README.md")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(src.Data))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "https://github.com/acme/docs/blob/main/", src.LinkBase)
}

func TestGitHubLoaderRateLimitIsRetryable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	g := NewGitHubLoader(config.GitHubConfig{APIURL: srv.URL}, fastPolicy(1))
	_, err := g.Load(context.Background(), "https://github.com/acme/docs/blob/main/README.md")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
	assert.Equal(t, int32(2), calls.Load())
}

func TestGitHubLoaderNotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	g := NewGitHubLoader(config.GitHubConfig{APIURL: srv.URL}, fastPolicy(3))
	_, err := g.Load(context.Background(), "https://github.com/acme/docs/blob/main/missing.md")
	require.Error(t, err)
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryContent, ce.Category())
	source, _ := ce.Context().GetString("source")
	assert.Equal(t, "https://github.com/acme/docs/blob/main/missing.md", source)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGitHubLoaderRejectsOversizedSource(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("# 0123456789"))
	}))
	defer srv.Close()

	g := NewGitHubLoader(config.GitHubConfig{APIURL: srv.URL}, fastPolicy(2))
	g.MaxSize = 12
	src, err := g.Load(context.Background(), "https://github.com/acme/docs/blob/main/README.md")
	require.NoError(t, err)
	assert.Equal(t, "# 0123456789", string(src.Data))

	g.MaxSize = 11
	_, err = g.Load(context.Background(), "https://github.com/acme/docs/blob/main/README.md")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryContent))
	assert.Equal(t, int32(2), calls.Load())
}
