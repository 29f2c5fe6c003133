package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/changes"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output        string `short:"o" help:"Output directory (overrides output.dir)"`
	NoPublish     bool   `name:"no-publish" help:"Do not copy the output to publish.destination"`
	SkipUnchanged bool   `name:"skip-unchanged" help:"Stop after the merge when nothing changed and output exists"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return RunBuild(ctx, os.Stdout, cfg, b.request(cfg))
}

func (b *BuildCmd) request(cfg *config.Config) build.BuildRequest {
	return build.BuildRequest{
		Config:    cfg,
		OutputDir: b.Output,
		Options: build.BuildOptions{
			NoPublish:       b.NoPublish,
			SkipIfUnchanged: b.SkipUnchanged,
		},
	}
}

// RunBuild executes one build and prints its report to out.
func RunBuild(ctx context.Context, out io.Writer, cfg *config.Config, req build.BuildRequest) error {
	svcs := newServices(ctx, cfg)
	defer svcs.Close()

	result, err := svcs.svc.Run(ctx, req)
	if result != nil {
		printReport(out, result)
	}
	if svcs.recorder != nil {
		if werr := svcs.recorder.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			slog.Warn("Failed to export metrics", logfields.Error(werr))
		}
	}
	return err
}

func printReport(out io.Writer, result *build.BuildResult) {
	if result.Skipped {
		_, _ = fmt.Fprintf(out, "Build skipped (%s) in %s\n", result.SkipReason, result.Duration.Round(time.Millisecond))
		return
	}
	_, _ = fmt.Fprintf(out, "Build %s in %s\n", result.Status, result.Duration.Round(time.Millisecond))
	rep := result.Report
	if rep == nil || result.Status != build.BuildStatusSuccess {
		return
	}
	pc := rep.Changes[changes.Pages]
	_, _ = fmt.Fprintf(out, "  pages:   %d (+%d ~%d -%d, %d unchanged)\n",
		rep.Pages, pc.Added, pc.Modified, pc.Removed, rep.Unchanged)
	_, _ = fmt.Fprintf(out, "  content: %d fetched, %d reused, %d stale, %d failed\n",
		rep.Content.Fetched, rep.Content.Reused, rep.Content.Stale, rep.Content.Failed)
	if rep.Sitemap > 0 {
		_, _ = fmt.Fprintf(out, "  sitemap: %d entries\n", rep.Sitemap)
	}
	if rep.Publish.Copied+rep.Publish.Unchanged > 0 {
		_, _ = fmt.Fprintf(out, "  publish: %d copied, %d unchanged\n", rep.Publish.Copied, rep.Publish.Unchanged)
	}
	if rep.Revision != "" {
		_, _ = fmt.Fprintf(out, "  model:   %s\n", rep.Revision)
	}
	_, _ = fmt.Fprintf(out, "  output:  %s\n", result.OutputPath)
}
