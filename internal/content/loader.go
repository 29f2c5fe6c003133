// Package content fetches the Markdown referenced by language blocks, renders
// it to HTML, and stores the result in the content cache.
package content

import "context"

// Source is raw Markdown returned by a Loader.
type Source struct {
	URL  string
	Data []byte

	// LinkBase and AssetBase resolve relative href and src attributes in the
	// rendered HTML. Empty values leave those attributes untouched.
	LinkBase  string
	AssetBase string
}

// Loader fetches Markdown for source URLs it matches.
type Loader interface {
	Name() string
	Match(sourceURL string) bool
	Load(ctx context.Context, sourceURL string) (*Source, error)
}

// Select returns the first loader that matches sourceURL.
func Select(loaders []Loader, sourceURL string) (Loader, bool) {
	for _, l := range loaders {
		if l.Match(sourceURL) {
			return l, true
		}
	}
	return nil, false
}
