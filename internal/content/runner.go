package content

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/cache"
	"git.home.luguber.info/inful/sitebuilder/internal/changes"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/model"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
)

// Stats summarizes a content run.
type Stats struct {
	Fetched int // loaded and rendered in this run
	Reused  int // served from the content cache, including revalidated sources
	Stale   int // failed to load, fell back to a previously cached render
	Failed  int // failed with nothing cached
}

// Revalidator is implemented by loaders whose sources may change without a
// model edit and are cheap to re-read on every run.
type Revalidator interface {
	Revalidate() bool
}

// Runner attaches rendered content to published language blocks.
type Runner struct {
	Loaders     []Loader
	Renderer    *Renderer
	Store       *cache.Store
	Concurrency int
	Recorder    metrics.Recorder

	// Refresh re-reads the sources of unchanged pages for every loader.
	Refresh bool
}

type task struct {
	page   model.Page
	url    string
	lang   string
	source string
	// cached is set when the page is unchanged and a render exists; the source
	// is re-read and only rendered again if its fingerprint moved.
	cached bool
}

type outcome struct {
	file        string
	fingerprint string
	reused      bool
}

// Run fetches content for every published block with a sourceUrl whose page
// was added or modified, or whose render is missing from the cache. Unchanged
// pages reuse the cached render, but their source is still read when Refresh
// is set or the loader revalidates; a source whose fingerprint differs from
// the cached one is rendered again. On success each block gets contentFile
// (cache-relative) and contentFingerprint.
//
// A failing source is logged and counted; it never fails the run. The
// returned error is non-nil only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, pages []model.Page, languages []string, ledger *changes.Ledger) (Stats, error) {
	var stats Stats
	changed := ledger.PageURLs(changes.Added, changes.Modified)

	var tasks []task
	for _, p := range pages {
		for _, lang := range languages {
			block, ok := p.Lang(lang)
			if !ok || !block.Published() || block.SourceURL() == "" {
				continue
			}
			url := p.URL()
			cached := !changed.Has(url) && r.Store.HasContent(url, lang)
			if cached && !r.revalidate(block.SourceURL()) {
				setContent(block, cache.ContentRel(url, lang), r.Store.ReadFingerprint(url, lang))
				stats.Reused++
				continue
			}
			tasks = append(tasks, task{page: p, url: url, lang: lang, source: block.SourceURL(), cached: cached})
		}
	}

	r.recorder().SetContentConcurrency(r.Concurrency)
	results := runOrdered(ctx, tasks, r.Concurrency, r.process)
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	for i, res := range results {
		t := tasks[i]
		block, _ := t.page.Lang(t.lang)
		if res.Err == nil {
			setContent(block, res.Value.file, res.Value.fingerprint)
			if res.Value.reused {
				stats.Reused++
			} else {
				stats.Fetched++
			}
			continue
		}
		attrs := []slog.Attr{logfields.URL(t.url), logfields.Lang(t.lang), logfields.Error(res.Err)}
		if r.Store.HasContent(t.url, t.lang) {
			setContent(block, cache.ContentRel(t.url, t.lang), r.Store.ReadFingerprint(t.url, t.lang))
			stats.Stale++
			observability.WarnContext(ctx, "Content fetch failed, using cached render", attrs...)
			continue
		}
		stats.Failed++
		observability.WarnContext(ctx, "Content fetch failed", attrs...)
	}
	return stats, nil
}

func (r *Runner) revalidate(source string) bool {
	if r.Refresh {
		return true
	}
	loader, ok := Select(r.Loaders, source)
	if !ok {
		return false
	}
	rv, ok := loader.(Revalidator)
	return ok && rv.Revalidate()
}

func (r *Runner) process(ctx context.Context, t task) (outcome, error) {
	loader, ok := Select(r.Loaders, t.source)
	if !ok {
		return outcome{}, errors.ContentError("no loader for source").WithContext("source", t.source).Build()
	}

	start := time.Now()
	src, err := loader.Load(ctx, t.source)
	r.recorder().ObserveContentFetch(loader.Name(), time.Since(start), err == nil)
	if err != nil {
		return outcome{}, err
	}

	if t.cached {
		fp, err := r.Renderer.Fingerprint(src)
		if err != nil {
			return outcome{}, err
		}
		if fp != "" && fp == r.Store.ReadFingerprint(t.url, t.lang) {
			return outcome{file: cache.ContentRel(t.url, t.lang), fingerprint: fp, reused: true}, nil
		}
	}

	rendered, err := r.Renderer.Render(src)
	if err != nil {
		return outcome{}, err
	}
	file, err := r.Store.WriteContent(t.url, t.lang, rendered.HTML)
	if err != nil {
		return outcome{}, err
	}
	if err := r.Store.WriteFingerprint(t.url, t.lang, rendered.Fingerprint); err != nil {
		return outcome{}, err
	}
	observability.DebugContext(ctx, "Content rendered",
		logfields.URL(t.url), logfields.Lang(t.lang), logfields.Loader(loader.Name()), logfields.Duration(time.Since(start)))
	return outcome{file: file, fingerprint: rendered.Fingerprint}, nil
}

func (r *Runner) recorder() metrics.Recorder {
	if r.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return r.Recorder
}

func setContent(block model.LangBlock, file, fingerprint string) {
	block[model.KeyContentFile] = file
	if fingerprint != "" {
		block[model.KeyContentFingerprint] = fingerprint
	}
}
