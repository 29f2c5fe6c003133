package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
)

// services is a build service plus the optional collaborators the
// configuration enables. Collaborators that fail to start are logged and
// left out; they never prevent a build.
type services struct {
	svc      *build.DefaultBuildService
	recorder *metrics.PrometheusRecorder
	history  *eventstore.SQLiteStore
	notifier *notify.NATSNotifier
}

func newServices(_ context.Context, cfg *config.Config) *services {
	s := &services{svc: build.NewBuildService()}

	if cfg.Metrics.Textfile != "" {
		s.recorder = metrics.NewPrometheusRecorder(nil)
		s.svc.WithRecorder(s.recorder)
	}
	if cfg.History.Path != "" {
		store, err := eventstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			slog.Warn("Build history disabled", logfields.Path(cfg.History.Path), logfields.Error(err))
		} else {
			s.history = store
			s.svc.WithEventStore(store)
		}
	}
	if cfg.Notify.Enabled() {
		n, err := notify.NewNATSNotifier(cfg.Notify, cfg.NotifyTimeout())
		if err != nil {
			slog.Warn("Change notifications disabled", logfields.Error(err))
		} else {
			s.notifier = n
			s.svc.WithNotifier(n)
		}
	}
	return s
}

// Close releases the history store and the NATS connection.
func (s *services) Close() {
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			slog.Warn("Failed to close build history", logfields.Error(err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Close(); err != nil {
			slog.Warn("Failed to close NATS connection", logfields.Error(err))
		}
	}
}
