package content

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/inful/mdfp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// Rendered is the HTML produced from a Source.
type Rendered struct {
	HTML        []byte
	Fingerprint string
	// Title is the frontmatter title, informational only.
	Title string
}

// Renderer converts Markdown sources to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer returns a GFM renderer with automatic heading ids.
func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)}
}

// Render strips frontmatter, renders the body, and rewrites relative links
// against the source's bases.
func (r *Renderer) Render(src *Source) (*Rendered, error) {
	doc, err := frontmatter.Parse(src.Data)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "invalid frontmatter").
			WithContext("source", src.URL).Build()
	}

	var buf bytes.Buffer
	if err := r.md.Convert(doc.Body, &buf); err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "failed to render markdown").
			WithContext("source", src.URL).Build()
	}

	out := buf.Bytes()
	if src.LinkBase != "" || src.AssetBase != "" {
		out, err = rewriteLinks(out, src.LinkBase, src.AssetBase)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryContent, "failed to rewrite links").
				WithContext("source", src.URL).Build()
		}
	}

	return &Rendered{
		HTML:        out,
		Fingerprint: fingerprint(doc),
		Title:       doc.Title(),
	}, nil
}

// Fingerprint returns the fingerprint Render would record for src without
// rendering it.
func (r *Renderer) Fingerprint(src *Source) (string, error) {
	doc, err := frontmatter.Parse(src.Data)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryContent, "invalid frontmatter").
			WithContext("source", src.URL).Build()
	}
	return fingerprint(doc), nil
}

func fingerprint(doc *frontmatter.Document) string {
	fm := strings.TrimSuffix(string(doc.Raw), "\n")
	return mdfp.CalculateFingerprintFromParts(fm, string(doc.Body))
}

func rewriteLinks(data []byte, linkBase, assetBase string) ([]byte, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(data), ctx)
	if err != nil {
		return nil, err
	}
	lb, err := parseBase(linkBase)
	if err != nil {
		return nil, err
	}
	ab, err := parseBase(assetBase)
	if err != nil {
		return nil, err
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.A:
				resolveAttr(n, "href", lb)
			case atom.Img, atom.Source, atom.Video, atom.Audio:
				resolveAttr(n, "src", ab)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	var out bytes.Buffer
	for _, n := range nodes {
		walk(n)
		if err := html.Render(&out, n); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

func parseBase(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	return url.Parse(raw)
}

func resolveAttr(n *html.Node, key string, base *url.URL) {
	if base == nil {
		return
	}
	for i, a := range n.Attr {
		if a.Key != key || !isRelative(a.Val) {
			continue
		}
		ref, err := url.Parse(a.Val)
		if err != nil {
			continue
		}
		n.Attr[i].Val = base.ResolveReference(ref).String()
	}
}

func isRelative(v string) bool {
	if v == "" || strings.HasPrefix(v, "#") || strings.HasPrefix(v, "/") {
		return false
	}
	u, err := url.Parse(v)
	return err == nil && u.Scheme == "" && u.Host == ""
}
