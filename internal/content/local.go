package content

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// LocalLoader reads sources from the filesystem below Root.
type LocalLoader struct {
	Root string
}

func (l *LocalLoader) Name() string { return "local" }

// Revalidate reports true: local files are edited in place and re-read on
// every run.
func (l *LocalLoader) Revalidate() bool { return true }

// Match accepts anything that is not a URL with a scheme.
func (l *LocalLoader) Match(sourceURL string) bool {
	return sourceURL != "" && !strings.Contains(sourceURL, "://")
}

// Load reads sourceURL relative to Root. The path cannot escape Root.
func (l *LocalLoader) Load(ctx context.Context, sourceURL string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := filepath.Join(l.Root, filepath.Clean(string(filepath.Separator)+filepath.FromSlash(sourceURL)))
	// #nosec G304 - path is confined to the configured content root
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "failed to read local source").
			WithContext("source", sourceURL).WithContext("path", p).Build()
	}
	return &Source{URL: sourceURL, Data: data}, nil
}
