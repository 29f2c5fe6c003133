// Package cache persists the model baseline between builds and the rendered
// content HTML keyed by page URL and language.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/model"
)

const (
	modelFile  = "model.json"
	contentDir = "content"
)

// Store is a cache rooted at Dir.
type Store struct {
	Dir string
}

// New returns a store rooted at dir.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// ModelPath is the location of the cached baseline model.
func (s *Store) ModelPath() string {
	return filepath.Join(s.Dir, modelFile)
}

// LoadModel returns the baseline written by the last successful build, or an
// empty collection on a first run.
func (s *Store) LoadModel() ([]model.Page, error) {
	if _, err := os.Stat(s.ModelPath()); os.IsNotExist(err) {
		return []model.Page{}, nil
	}
	pages, err := model.Load(s.ModelPath())
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryCache, "failed to load cached model").
			Fatal().WithContext("path", s.ModelPath()).Build()
	}
	return pages, nil
}

// SaveModel atomically replaces the baseline.
func (s *Store) SaveModel(pages []model.Page) error {
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryCache, "failed to create cache directory").
			Fatal().WithContext("path", s.Dir).Build()
	}
	return model.Save(s.ModelPath(), pages)
}

// ContentRel is the cache-relative location of rendered HTML for url in lang.
// Distinct URLs always map to distinct files. A clean URL such as /docs/intro
// maps to docs/intro/index.html; any other URL (trailing slash, dot segments,
// unusual characters) maps to a hashed file under "_".
func ContentRel(url, lang string) string {
	if url == "/" {
		return path.Join(contentDir, lang, "index.html")
	}
	if readableURL(url) {
		return path.Join(contentDir, lang, url[1:], "index.html")
	}
	sum := sha256.Sum256([]byte(url))
	return path.Join(contentDir, lang, "_", hex.EncodeToString(sum[:])+".html")
}

// readableURL reports whether url can be used as a directory path as is: it is
// absolute and already clean, and no segment could be mistaken for a rendered file.
func readableURL(url string) bool {
	if !strings.HasPrefix(url, "/") || path.Clean(url) != url {
		return false
	}
	for _, seg := range strings.Split(url[1:], "/") {
		if strings.HasSuffix(seg, ".html") || strings.HasSuffix(seg, ".fingerprint") {
			return false
		}
		for _, r := range seg {
			if !isSegmentRune(r) {
				return false
			}
		}
	}
	return true
}

func isSegmentRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_', r == '.', r == '~':
		return true
	}
	return false
}

// ContentPath is the absolute location of rendered HTML for url in lang.
func (s *Store) ContentPath(url, lang string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(ContentRel(url, lang)))
}

// HasContent reports whether rendered HTML is cached for url in lang.
func (s *Store) HasContent(url, lang string) bool {
	info, err := os.Stat(s.ContentPath(url, lang))
	return err == nil && info.Mode().IsRegular()
}

// WriteContent stores rendered HTML and returns its cache-relative path.
func (s *Store) WriteContent(url, lang string, html []byte) (string, error) {
	dst := s.ContentPath(url, lang)
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return "", errors.WrapError(err, errors.CategoryCache, "failed to create content directory").
			WithContext("path", filepath.Dir(dst)).Build()
	}
	if err := model.WriteFileAtomic(dst, html); err != nil {
		return "", err
	}
	return ContentRel(url, lang), nil
}

// ReadContent returns cached HTML for url in lang.
func (s *Store) ReadContent(url, lang string) ([]byte, error) {
	// #nosec G304 - path is derived from a cleaned URL under the cache dir
	data, err := os.ReadFile(s.ContentPath(url, lang))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryCache, "failed to read cached content").
			WithContext("url", url).WithContext("lang", lang).Build()
	}
	return data, nil
}

// Clear removes the whole cache directory.
func (s *Store) Clear() error {
	if err := os.RemoveAll(s.Dir); err != nil {
		return errors.WrapError(err, errors.CategoryCache, "failed to clear cache").
			WithContext("path", s.Dir).Build()
	}
	return nil
}

func (s *Store) fingerprintPath(url, lang string) string {
	return strings.TrimSuffix(s.ContentPath(url, lang), ".html") + ".fingerprint"
}

// WriteFingerprint records the source fingerprint next to the cached HTML.
func (s *Store) WriteFingerprint(url, lang, fingerprint string) error {
	return model.WriteFileAtomic(s.fingerprintPath(url, lang), []byte(fingerprint))
}

// ReadFingerprint returns the recorded source fingerprint, or "" when none is cached.
func (s *Store) ReadFingerprint(url, lang string) string {
	// #nosec G304 - path is derived from a cleaned URL under the cache dir
	data, err := os.ReadFile(s.fingerprintPath(url, lang))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// RemoveContent drops the cached render and fingerprint for url in lang.
func (s *Store) RemoveContent(url, lang string) error {
	for _, p := range []string{s.ContentPath(url, lang), s.fingerprintPath(url, lang)} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return errors.WrapError(err, errors.CategoryCache, "failed to remove cached content").
				WithContext("path", p).Build()
		}
	}
	return nil
}
