package commands

import (
	"io"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"github.com/alecthomas/kong"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitebuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Merge the models, fetch content and write the site data"`
	Diff    DiffCmd    `cmd:"" help:"Show what changed since the last successful build"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever the model or local sources change"`
	History HistoryCmd `cmd:"" help:"List recorded builds and their page changes"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig reads the configuration and applies its log settings. The
// --verbose flag always wins over log.level.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(newLogger(os.Stderr, cfg.Log, root.Verbose))
	return cfg, nil
}

func newLogger(w io.Writer, lc config.LogConfig, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFor(lc.Level, verbose)}
	if lc.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func levelFor(level config.LogLevel, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
