package build

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
)

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return f.err
}

func newHistory(t *testing.T) *eventstore.SQLiteStore {
	t.Helper()
	store, err := eventstore.NewSQLiteStore(eventstore.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRun_RecordsHistory(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, baseModel)
	store := newHistory(t)
	svc := NewBuildService().WithEventStore(store)

	first, err := svc.Run(context.Background(), BuildRequest{Config: f.cfg})
	require.NoError(t, err)

	f.writeModel(t, `[{"url": "/", "en": {"title": "Home"}}]`)
	second, err := svc.Run(context.Background(), BuildRequest{Config: f.cfg})
	require.NoError(t, err)

	history, err := eventstore.History(context.Background(), store, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	byID := map[string]eventstore.BuildSummary{}
	for _, h := range history {
		byID[h.BuildID] = h
	}
	assert.Equal(t, "success", byID[first.Report.BuildID].Status)
	assert.Equal(t, 2, byID[first.Report.BuildID].Added)
	assert.Equal(t, 1, byID[second.Report.BuildID].Removed)

	changed, err := eventstore.PageChanges(context.Background(), store, second.Report.BuildID)
	require.NoError(t, err)
	assert.Equal(t, []eventstore.PageChanged{{URL: "/docs/intro", Kind: "removed"}}, changed)
}

func TestRun_RecordsFailedBuild(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, `[{"en": {"title": "no url"}}]`)
	store := newHistory(t)

	_, err := NewBuildService().WithEventStore(store).Run(context.Background(), BuildRequest{Config: f.cfg})
	require.Error(t, err)

	history, err := eventstore.History(context.Background(), store, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "failed", history[0].Status)
	assert.NotEmpty(t, history[0].Error)
}

func TestRun_NotifiesOnlyWhenChanged(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, baseModel)
	n := &fakeNotifier{}
	svc := NewBuildService().WithNotifier(n)

	result, err := svc.Run(context.Background(), BuildRequest{Config: f.cfg})
	require.NoError(t, err)
	require.Len(t, n.msgs, 1)
	assert.Equal(t, result.Report.BuildID, n.msgs[0].BuildID)
	assert.Len(t, n.msgs[0].Changes.Pages().Added(), 2)

	_, err = svc.Run(context.Background(), BuildRequest{Config: f.cfg})
	require.NoError(t, err)
	assert.Len(t, n.msgs, 1)
}

func TestRun_NotifyFailureDoesNotFailBuild(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, baseModel)
	n := &fakeNotifier{err: errors.NetworkError("down").Build()}

	result, err := NewBuildService().WithNotifier(n).Run(context.Background(), BuildRequest{Config: f.cfg})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, result.Status)
}

func TestRun_ReportsModelRevision(t *testing.T) {
	f := newFixture(t)
	f.writeModel(t, baseModel)
	repo, err := git.PlainInit(f.dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("model.json")
	require.NoError(t, err)
	hash, err := wt.Commit("model", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	result, err := NewBuildService().Run(context.Background(), BuildRequest{Config: f.cfg})
	require.NoError(t, err)
	assert.Equal(t, hash.String()[:12], result.Report.Revision)
}
