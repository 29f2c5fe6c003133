package eventstore

import (
	"context"
	"sort"
	"time"
)

// StatusRunning marks a build with no BuildCompleted event yet.
const StatusRunning = "running"

// BuildSummary is the read model of one build.
type BuildSummary struct {
	BuildID       string        `json:"build_id"`
	Status        string        `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	Duration      time.Duration `json:"duration,omitempty"`
	ModelRevision string        `json:"model_revision,omitempty"`
	Skipped       bool          `json:"skipped,omitempty"`
	Pages         int           `json:"pages"`
	Added         int           `json:"added"`
	Modified      int           `json:"modified"`
	Removed       int           `json:"removed"`
	ContentFailed int           `json:"content_failed"`
	Error         string        `json:"error,omitempty"`
}

// History folds every stored event into build summaries, newest first,
// keeping at most limit entries (all when limit <= 0).
func History(ctx context.Context, store Store, limit int) ([]BuildSummary, error) {
	events, err := store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return nil, err
	}

	builds := map[string]*BuildSummary{}
	var order []*BuildSummary
	for _, e := range events {
		s, ok := builds[e.BuildID]
		if !ok {
			s = &BuildSummary{BuildID: e.BuildID, Status: StatusRunning, StartedAt: e.Timestamp}
			builds[e.BuildID] = s
			order = append(order, s)
		}
		if err := apply(s, e); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].StartedAt.After(order[j].StartedAt) })
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	out := make([]BuildSummary, len(order))
	for i, s := range order {
		out[i] = *s
	}
	return out, nil
}

func apply(s *BuildSummary, e Event) error {
	switch e.Type {
	case TypeBuildStarted:
		started, err := Decode[BuildStarted](e)
		if err != nil {
			return err
		}
		s.StartedAt = e.Timestamp
		s.ModelRevision = started.ModelRevision
	case TypeBuildCompleted:
		done, err := Decode[BuildCompleted](e)
		if err != nil {
			return err
		}
		completed := e.Timestamp
		s.CompletedAt = &completed
		s.Status = done.Status
		s.Duration = time.Duration(done.DurationMS) * time.Millisecond
		s.Skipped = done.Skipped
		s.Pages = done.Pages
		s.Added = done.Added
		s.Modified = done.Modified
		s.Removed = done.Removed
		s.ContentFailed = done.ContentFailed
		s.Error = done.Error
	}
	return nil
}

// PageChanges returns the page changes recorded for one build, in ledger order.
func PageChanges(ctx context.Context, store Store, buildID string) ([]PageChanged, error) {
	events, err := store.GetByBuildID(ctx, buildID)
	if err != nil {
		return nil, err
	}
	var out []PageChanged
	for _, e := range events {
		if e.Type != TypePageChanged {
			continue
		}
		pc, err := Decode[PageChanged](e)
		if err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, nil
}
