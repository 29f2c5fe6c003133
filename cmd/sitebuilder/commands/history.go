package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of builds to show" default:"10"`
	Build string `short:"b" help:"Show the page changes of one build"`
	JSON  bool   `name:"json" help:"Print JSON"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	return RunHistory(context.Background(), os.Stdout, cfg, *h)
}

// RunHistory prints recorded builds, or the page changes of one build.
func RunHistory(ctx context.Context, out io.Writer, cfg *config.Config, opts HistoryCmd) error {
	if cfg.History.Path == "" {
		return errors.ConfigError("build history is disabled (set history.path)").
			WithContext("field", "history.path").Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if opts.Build != "" {
		changed, err := eventstore.PageChanges(ctx, store, opts.Build)
		if err != nil {
			return err
		}
		if opts.JSON {
			return writeJSON(out, changed)
		}
		if len(changed) == 0 {
			_, _ = fmt.Fprintln(out, "No page changes recorded")
			return nil
		}
		for _, c := range changed {
			_, _ = fmt.Fprintf(out, "%-8s %s\n", c.Kind, c.URL)
		}
		return nil
	}

	builds, err := eventstore.History(ctx, store, opts.Limit)
	if err != nil {
		return err
	}
	if opts.JSON {
		return writeJSON(out, builds)
	}
	if len(builds) == 0 {
		_, _ = fmt.Fprintln(out, "No builds recorded")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tSTATUS\tPAGES\tCHANGES\tMODEL")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t+%d ~%d -%d\t%s\n",
			b.BuildID, b.StartedAt.Format(time.DateTime), b.Status, b.Pages,
			b.Added, b.Modified, b.Removed, b.ModelRevision)
	}
	return tw.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode JSON").Build()
	}
	return nil
}
