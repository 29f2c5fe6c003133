package build

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/changes"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
	"git.home.luguber.info/inful/sitebuilder/internal/revision"
)

func (r *run) detectRevision() {
	info, err := revision.Detect(r.cfg.Model.Path)
	if err != nil {
		observability.WarnContext(r.ctx, "Failed to detect model revision", logfields.Error(err))
		return
	}
	r.report.Revision = info.String()
	if r.report.Revision != "" {
		observability.DebugContext(r.ctx, "Model revision", slog.String("revision", r.report.Revision))
	}
}

// appendEvent records one history event. Failures are logged and never fail
// the build. A cancelled build still records its completion.
func (r *run) appendEvent(eventType string, payload any) {
	if r.s.events == nil {
		return
	}
	if err := eventstore.AppendJSON(context.WithoutCancel(r.ctx), r.s.events, r.report.BuildID, eventType, payload); err != nil {
		observability.WarnContext(r.ctx, "Failed to record build event",
			slog.String("type", eventType), logfields.Error(err))
	}
}

func (r *run) recordStarted() {
	r.appendEvent(eventstore.TypeBuildStarted, eventstore.BuildStarted{
		ModelPath:     r.cfg.Model.Path,
		ModelRevision: r.report.Revision,
		Languages:     r.cfg.Languages,
	})
}

func (r *run) recordChanges() {
	if r.s.events == nil {
		return
	}
	pages := r.ledger.Pages()
	for _, kind := range []changes.Kind{changes.Added, changes.Modified, changes.Removed} {
		for _, ch := range pages.Of(kind) {
			r.appendEvent(eventstore.TypePageChanged, eventstore.PageChanged{URL: ch.URL, Kind: string(kind)})
		}
	}
}

func (r *run) recordCompleted(err error) {
	if r.s.events == nil || r.cfg == nil {
		return
	}
	done := eventstore.BuildCompleted{
		Status:        string(r.result.Status),
		DurationMS:    r.result.Duration.Milliseconds(),
		Skipped:       r.result.Skipped,
		Pages:         r.report.Pages,
		ContentFailed: r.report.Content.Failed,
	}
	if pc, ok := r.report.Changes[changes.Pages]; ok {
		done.Added, done.Modified, done.Removed = pc.Added, pc.Modified, pc.Removed
	}
	if err != nil {
		done.Error = err.Error()
	}
	r.appendEvent(eventstore.TypeBuildCompleted, done)
}

func (r *run) notify() {
	if r.s.notifier == nil || r.ledger == nil || !r.ledger.AreModified() {
		return
	}
	msg := notify.Message{
		BuildID:       r.report.BuildID,
		Status:        string(BuildStatusSuccess),
		ModelRevision: r.report.Revision,
		Pages:         r.report.Pages,
		Changes:       r.ledger,
	}
	if err := r.s.notifier.Notify(r.ctx, msg); err != nil {
		observability.WarnContext(r.ctx, "Failed to send change notification", logfields.Error(err))
	}
}
