package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/changes"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/publish"
)

// BuildService executes site builds.
type BuildService interface {
	// Run executes the complete pipeline and returns the outcome. A non-nil
	// error always comes with a result whose Status is failed or cancelled.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a build.
type BuildRequest struct {
	Config *config.Config

	// OutputDir overrides Config.Output.Dir when set.
	OutputDir string

	Options BuildOptions
}

// BuildOptions modifies build behavior.
type BuildOptions struct {
	// NoPublish skips copying the output to the publish destination.
	NoPublish bool

	// SkipIfUnchanged stops after the merge when the ledger is empty and the
	// output of a previous build is present.
	SkipIfUnchanged bool

	// Refresh re-reads every content source, not only those of changed pages
	// and those whose loader always revalidates.
	Refresh bool
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	Status     BuildStatus
	Report     *Report
	OutputPath string
	Duration   time.Duration
	StartTime  time.Time
	EndTime    time.Time

	// Skipped indicates the build stopped early because nothing changed.
	Skipped    bool
	SkipReason string
}

// Report summarizes what a build did.
type Report struct {
	BuildID   string                                  `json:"buildId"`
	Revision  string                                  `json:"modelRevision,omitempty"`
	Changes   map[changes.CategoryName]changes.Counts `json:"changes"`
	Pages     int                                     `json:"pages"`
	Unchanged int                                     `json:"unchanged"`
	Content   content.Stats                           `json:"content"`
	Sitemap   int                                     `json:"sitemapEntries"`
	Publish   publish.Stats                           `json:"publish"`
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	BuildStatusSuccess   BuildStatus = "success"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusSkipped   BuildStatus = "skipped"
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s BuildStatus) IsTerminal() bool {
	return s == BuildStatusSuccess || s == BuildStatusFailed ||
		s == BuildStatusSkipped || s == BuildStatusCancelled
}

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess || s == BuildStatusSkipped
}
