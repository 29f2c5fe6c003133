package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output    string        `short:"o" help:"Output directory (overrides output.dir)"`
	NoPublish bool          `name:"no-publish" help:"Do not copy the output to publish.destination"`
	Debounce  time.Duration `help:"Quiet period before rebuilding" default:"500ms"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := RunBuild(ctx, os.Stdout, cfg, w.request(cfg)); err != nil {
		slog.Error("Initial build failed", logfields.Error(err))
	}

	rebuild := watch.Serialized(func(ctx context.Context) error {
		cfg, err := config.Load(root.Config)
		if err != nil {
			return err
		}
		req := w.request(cfg)
		req.Options.Refresh = watch.IsRefresh(ctx)
		return RunBuild(ctx, os.Stdout, cfg, req)
	})
	watcher, err := watch.New(w.options(cfg, root.Config), rebuild)
	if err != nil {
		return err
	}

	if interval := cfg.RefreshInterval(); interval > 0 {
		sched, err := watch.NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.SchedulePeriodicRebuild(ctx, interval, rebuild); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}()
		slog.Info("Periodic refresh enabled", logfields.Duration(interval))
	}

	slog.Info("Watching for changes", logfields.Path(cfg.Model.Path))
	return watcher.Run(ctx)
}

func (w *WatchCmd) request(cfg *config.Config) build.BuildRequest {
	return build.BuildRequest{
		Config:    cfg,
		OutputDir: w.Output,
		Options:   build.BuildOptions{NoPublish: w.NoPublish},
	}
}

// options watches the model and config files plus the local content root,
// ignoring every path the build itself writes to.
func (w *WatchCmd) options(cfg *config.Config, configPath string) watch.Options {
	opts := watch.Options{
		Files:    []string{cfg.Model.Path, configPath},
		Dirs:     []string{build.LocalRoot(cfg)},
		Debounce: w.Debounce,
	}
	output := w.Output
	if output == "" {
		output = cfg.Output.Dir
	}
	for _, dir := range []string{cfg.Cache.Dir, output, cfg.Publish.Destination, cfg.Metrics.Textfile, cfg.History.Path} {
		if dir != "" {
			opts.Ignore = append(opts.Ignore, dir)
		}
	}
	return opts
}
