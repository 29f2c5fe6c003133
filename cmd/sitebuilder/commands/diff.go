package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// DiffCmd implements the 'diff' command.
type DiffCmd struct {
	JSON bool `name:"json" help:"Print the change ledger as JSON"`
}

func (d *DiffCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	return RunDiff(context.Background(), os.Stdout, cfg, d.JSON)
}

// RunDiff merges the cached baseline with the current model and prints the
// resulting ledger. Nothing is written.
func RunDiff(ctx context.Context, out io.Writer, cfg *config.Config, asJSON bool) error {
	result, err := build.NewBuildService().Diff(ctx, cfg)
	if err != nil {
		return err
	}
	if asJSON {
		data, err := json.MarshalIndent(result.Changes, "", "  ")
		if err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "failed to encode change ledger").Build()
		}
		_, _ = fmt.Fprintln(out, string(data))
		return nil
	}
	lines := result.Changes.Lines()
	if len(lines) == 0 {
		_, _ = fmt.Fprintln(out, "No changes")
		return nil
	}
	for _, line := range lines {
		_, _ = fmt.Fprintln(out, line)
	}
	st := result.Stats()
	_, _ = fmt.Fprintf(out, "%d added, %d modified, %d removed, %d unchanged\n",
		st.Added, st.Modified, st.Removed, st.Unchanged)
	return nil
}
