package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Scheduler wraps a gocron scheduler running periodic rebuilds.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create scheduler").Build()
	}
	return &Scheduler{scheduler: s}, nil
}

type refreshKey struct{}

// WithRefresh marks ctx as belonging to a scheduled refresh.
func WithRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshKey{}, true)
}

// IsRefresh reports whether the rebuild was started by the scheduler rather
// than by a file change. Refreshes re-read every content source.
func IsRefresh(ctx context.Context) bool {
	v, _ := ctx.Value(refreshKey{}).(bool)
	return v
}

// SchedulePeriodicRebuild runs rebuild every interval with ctx marked by
// WithRefresh. A run still in progress when the next one is due delays it
// instead of overlapping. Returns the job id.
func (s *Scheduler) SchedulePeriodicRebuild(ctx context.Context, interval time.Duration, rebuild RebuildFunc) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			slog.Info("Scheduled rebuild", logfields.Duration(interval))
			if err := rebuild(WithRefresh(ctx)); err != nil {
				slog.Error("Scheduled rebuild failed", logfields.Error(err))
			}
		}),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "failed to create periodic rebuild job").
			WithContext("interval", interval.String()).Build()
	}
	return job.ID().String(), nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Debug("Starting scheduler")
	s.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	slog.Debug("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// Serialized returns a RebuildFunc that never runs concurrently with itself,
// for sharing one rebuild between the watcher and the scheduler.
func Serialized(rebuild RebuildFunc) RebuildFunc {
	var mu sync.Mutex
	return func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		return rebuild(ctx)
	}
}
