package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/cache"
	"git.home.luguber.info/inful/sitebuilder/internal/changes"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/enrich"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/merge"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/model"
	"git.home.luguber.info/inful/sitebuilder/internal/normalize"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
	"git.home.luguber.info/inful/sitebuilder/internal/publish"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
	"git.home.luguber.info/inful/sitebuilder/internal/sitemap"
)

// Output file names, relative to the output directory.
const (
	DataFile    = "data.json"
	SitemapFile = "sitemap.xml"
	ContentDir  = "content"
)

// Stage names used for logging and metrics.
const (
	StageLoad      = "load"
	StageMerge     = "merge"
	StageNormalize = "normalize"
	StageContent   = "content"
	StageEnrich    = "enrich"
	StageWrite     = "write"
	StageCache     = "cache"
	StagePublish   = "publish"
)

// LoaderFactory creates the content loaders for a configuration.
type LoaderFactory func(cfg *config.Config) []content.Loader

// LocalRoot is the directory local sources resolve against: content.local_root,
// or the model file's directory when unset.
func LocalRoot(cfg *config.Config) string {
	if cfg.Content.LocalRoot != "" {
		return cfg.Content.LocalRoot
	}
	return filepath.Dir(cfg.Model.Path)
}

// DefaultLoaders returns the GitHub loader followed by the local loader.
func DefaultLoaders(cfg *config.Config) []content.Loader {
	return []content.Loader{
		content.NewGitHubLoader(cfg.GitHub, retry.FromConfig(cfg.Retry)),
		&content.LocalLoader{Root: LocalRoot(cfg)},
	}
}

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	loaderFactory LoaderFactory
	transforms    []enrich.Transform
	recorder      metrics.Recorder
	events        eventstore.Store
	notifier      notify.Notifier
}

// NewBuildService creates a DefaultBuildService with default loaders and transforms.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		loaderFactory: DefaultLoaders,
		transforms:    enrich.Default(),
		recorder:      metrics.NoopRecorder{},
	}
}

// WithLoaderFactory replaces the content loader factory.
func (s *DefaultBuildService) WithLoaderFactory(factory LoaderFactory) *DefaultBuildService {
	s.loaderFactory = factory
	return s
}

// WithTransforms replaces the enrichment transforms.
func (s *DefaultBuildService) WithTransforms(transforms ...enrich.Transform) *DefaultBuildService {
	s.transforms = transforms
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// WithEventStore records every build in store.
func (s *DefaultBuildService) WithEventStore(store eventstore.Store) *DefaultBuildService {
	s.events = store
	return s
}

// WithNotifier announces successful builds that changed pages.
func (s *DefaultBuildService) WithNotifier(n notify.Notifier) *DefaultBuildService {
	s.notifier = n
	return s
}

// Diff loads both models and merges them without writing anything.
func (s *DefaultBuildService) Diff(ctx context.Context, cfg *config.Config) (*merge.Result, error) {
	if cfg == nil {
		return nil, errors.ConfigError("config required").Build()
	}
	newPages, oldPages, err := loadModels(cfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return merge.Merge(oldPages, newPages)
}

func loadModels(cfg *config.Config) (newPages, oldPages []model.Page, err error) {
	newPages, err = model.Load(cfg.Model.Path)
	if err != nil {
		return nil, nil, err
	}
	oldPages, err = cache.New(cfg.Cache.Dir).LoadModel()
	if err != nil {
		return nil, nil, err
	}
	return newPages, oldPages, nil
}

// run is the per-build state shared by the stages.
type run struct {
	s       *DefaultBuildService
	ctx     context.Context
	req     BuildRequest
	cfg     *config.Config
	store   *cache.Store
	output  string
	result  *BuildResult
	report  *Report
	ledger  *changes.Ledger
	started time.Time
}

// stage runs fn as a named stage, recording duration and result.
func (r *run) stage(name string, fn func(ctx context.Context) error) error {
	if err := r.ctx.Err(); err != nil {
		r.s.recorder.IncStageResult(name, metrics.ResultCanceled)
		return err
	}
	ctx := observability.WithStage(r.ctx, name)
	start := time.Now()
	err := fn(ctx)
	r.s.recorder.ObserveStageDuration(name, time.Since(start))
	switch {
	case err == nil:
		r.s.recorder.IncStageResult(name, metrics.ResultSuccess)
		observability.DebugContext(ctx, "Stage complete", logfields.Duration(time.Since(start)))
	case stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded):
		r.s.recorder.IncStageResult(name, metrics.ResultCanceled)
	default:
		r.s.recorder.IncStageResult(name, metrics.ResultFatal)
		observability.ErrorContext(ctx, "Stage failed", logfields.Error(err))
	}
	return err
}

func (r *run) finish(status BuildStatus, err error) (*BuildResult, error) {
	r.result.Status = status
	r.result.EndTime = time.Now()
	r.result.Duration = r.result.EndTime.Sub(r.started)
	r.s.recorder.ObserveBuildDuration(r.result.Duration)
	r.recordCompleted(err)

	switch status {
	case BuildStatusSuccess, BuildStatusSkipped:
		outcome := metrics.BuildOutcomeSuccess
		if r.report.Content.Failed > 0 || r.report.Content.Stale > 0 {
			outcome = metrics.BuildOutcomeWarning
		}
		r.s.recorder.IncBuildOutcome(outcome)
	case BuildStatusCancelled:
		r.s.recorder.IncBuildOutcome(metrics.BuildOutcomeCanceled)
	default:
		r.s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
	}
	return r.result, err
}

func (r *run) fail(err error) (*BuildResult, error) {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return r.finish(BuildStatusCancelled, err)
	}
	return r.finish(BuildStatusFailed, err)
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	started := time.Now()
	ctx, buildID := observability.NewBuildContext(ctx)
	report := &Report{BuildID: buildID}
	r := &run{
		s:       s,
		ctx:     ctx,
		req:     req,
		cfg:     req.Config,
		report:  report,
		started: started,
		result:  &BuildResult{StartTime: started, Report: report},
	}
	if req.Config == nil {
		return r.finish(BuildStatusFailed, errors.ConfigError("config required").Build())
	}
	r.store = cache.New(req.Config.Cache.Dir)
	r.output = req.OutputDir
	if r.output == "" {
		r.output = req.Config.Output.Dir
	}
	r.result.OutputPath = r.output

	observability.InfoContext(ctx, "Starting build",
		slog.String("config", req.Config.Summary()), logfields.Path(r.output))
	r.detectRevision()
	r.recordStarted()

	var newPages, oldPages []model.Page
	if err := r.stage(StageLoad, func(context.Context) error {
		var err error
		newPages, oldPages, err = loadModels(r.cfg)
		return err
	}); err != nil {
		return r.fail(err)
	}

	var merged *merge.Result
	if err := r.stage(StageMerge, func(ctx context.Context) error {
		var err error
		if merged, err = merge.Merge(oldPages, newPages); err != nil {
			return err
		}
		merged.Changes.Log(slog.Default())
		r.ledger = merged.Changes
		r.recordChanges()
		st := merged.Stats()
		report.Changes = merged.Changes.Summary()
		report.Pages = len(merged.Pages)
		report.Unchanged = st.Unchanged
		s.recorder.AddPageChanges(string(changes.Added), st.Added)
		s.recorder.AddPageChanges(string(changes.Modified), st.Modified)
		s.recorder.AddPageChanges(string(changes.Removed), st.Removed)
		observability.InfoContext(ctx, "Model merged",
			slog.Int("added", st.Added), slog.Int("modified", st.Modified),
			slog.Int("removed", st.Removed), slog.Int("unchanged", st.Unchanged))
		return nil
	}); err != nil {
		return r.fail(err)
	}

	if req.Options.SkipIfUnchanged && !merged.Changes.AreModified() && r.outputPresent() {
		observability.InfoContext(ctx, "Build skipped - no changes detected")
		r.result.Skipped = true
		r.result.SkipReason = "no_changes"
		if err := r.publish(); err != nil {
			return r.fail(err)
		}
		return r.finish(BuildStatusSkipped, nil)
	}

	var pages []model.Page
	if err := r.stage(StageNormalize, func(context.Context) error {
		pages = normalize.Normalize(merged.Pages, r.cfg.Languages)
		return nil
	}); err != nil {
		return r.fail(err)
	}

	if err := r.stage(StageContent, func(ctx context.Context) error {
		for _, ch := range merged.Changes.Pages().Removed() {
			for _, lang := range r.cfg.Languages {
				if err := r.store.RemoveContent(ch.URL, lang); err != nil {
					observability.WarnContext(ctx, "Failed to drop cached content", logfields.URL(ch.URL), logfields.Error(err))
				}
			}
		}
		runner := &content.Runner{
			Loaders:     s.loaderFactory(r.cfg),
			Renderer:    content.NewRenderer(),
			Store:       r.store,
			Concurrency: r.cfg.Content.Concurrency,
			Recorder:    s.recorder,
			Refresh:     req.Options.Refresh,
		}
		st, err := runner.Run(ctx, pages, r.cfg.Languages, merged.Changes)
		report.Content = st
		if err == nil && st.Failed+st.Stale > 0 {
			observability.WarnContext(ctx, "Some content could not be fetched",
				slog.Int("failed", st.Failed), slog.Int("stale", st.Stale))
		}
		return err
	}); err != nil {
		return r.fail(err)
	}

	if err := r.stage(StageEnrich, func(ctx context.Context) error {
		var err error
		pages, err = enrich.Chain(ctx, pages, enrich.Context{
			Languages: r.cfg.Languages,
			SiteTitle: r.cfg.Site.Title,
			BaseURL:   r.cfg.Site.BaseURL,
		}, s.transforms...)
		return err
	}); err != nil {
		return r.fail(err)
	}

	if err := r.stage(StageWrite, func(ctx context.Context) error {
		return r.writeOutput(ctx, pages)
	}); err != nil {
		return r.fail(err)
	}

	// The baseline is the authored model, not the enriched output, so the
	// next merge compares like with like.
	if err := r.stage(StageCache, func(context.Context) error {
		return r.store.SaveModel(newPages)
	}); err != nil {
		return r.fail(err)
	}

	if err := r.publish(); err != nil {
		return r.fail(err)
	}

	r.notify()
	observability.InfoContext(ctx, "Build complete",
		logfields.Pages(report.Pages), logfields.Path(r.output), logfields.Duration(time.Since(started)))
	return r.finish(BuildStatusSuccess, nil)
}

func (r *run) outputPresent() bool {
	_, err := os.Stat(filepath.Join(r.output, DataFile))
	return err == nil
}

func (r *run) writeOutput(ctx context.Context, pages []model.Page) error {
	if r.cfg.Output.Clean {
		if err := os.RemoveAll(r.output); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to clean output directory").
				WithContext("path", r.output).Build()
		}
	}
	if err := os.MkdirAll(r.output, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", r.output).Build()
	}

	cached := filepath.Join(r.store.Dir, ContentDir)
	if _, err := os.Stat(cached); err == nil {
		if err := publish.CopyDir(ctx, cached, filepath.Join(r.output, ContentDir), nil); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to copy rendered content").
				WithContext("path", cached).Build()
		}
	}

	if r.cfg.Sitemap.IsEnabled() {
		set := sitemap.Build(pages, r.cfg.Languages, r.cfg.Site.BaseURL, sitemap.Options{
			ChangeFreq: string(r.cfg.Sitemap.ChangeFreq),
			Priority:   r.cfg.Sitemap.Priority,
		})
		if err := sitemap.Write(filepath.Join(r.output, SitemapFile), set); err != nil {
			return err
		}
		r.report.Sitemap = len(set.URLs)
	}

	return model.Save(filepath.Join(r.output, DataFile), pages)
}

func (r *run) publish() error {
	if r.req.Options.NoPublish || r.cfg.Publish.Destination == "" {
		return nil
	}
	return r.stage(StagePublish, func(ctx context.Context) error {
		st, err := publish.Publish(ctx, r.output, r.cfg.Publish.Destination)
		r.report.Publish = st
		if err == nil {
			observability.InfoContext(ctx, "Output published",
				logfields.Path(r.cfg.Publish.Destination), slog.Int("copied", st.Copied))
		}
		return err
	})
}
