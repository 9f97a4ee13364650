package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/repository"
)

func newTestStore(t *testing.T) (*Store, repository.Repository) {
	t.Helper()
	repo, err := repository.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return New(repo), repo
}

func TestStartThenAdvanceThenCancel(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	state, err := store.Start(ctx, "user-1", model.FlowAnnouncement, "awaiting_text")
	require.NoError(t, err)
	require.Equal(t, "awaiting_text", state.Step)

	_, err = store.Start(ctx, "user-1", model.FlowAnnouncement, "awaiting_text")
	require.Error(t, err)

	state, err = store.Advance(ctx, "user-1", model.FlowAnnouncement, "preview", map[string]any{"draft": "hello"})
	require.NoError(t, err)
	require.Equal(t, "preview", state.Step)
	require.Equal(t, "hello", state.Data["draft"])

	require.NoError(t, store.Cancel(ctx, "user-1", model.FlowAnnouncement))
	active, err := store.Active(ctx, "user-1", model.FlowAnnouncement)
	require.NoError(t, err)
	require.Nil(t, active)
}

func TestActiveAnyFindsStateRegardlessOfFlow(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	none, err := store.ActiveAny(ctx, "user-1")
	require.NoError(t, err)
	require.Nil(t, none)

	_, err = store.Start(ctx, "user-1", model.FlowApproval, "awaiting_decision")
	require.NoError(t, err)

	found, err := store.ActiveAny(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, model.FlowApproval, found.Flow)
}

func TestSweepExpiresIdleStates(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	_, err := store.Start(ctx, "user-1", model.FlowTriviaSubmission, "initial")
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	active, err := store.Active(ctx, "user-1", model.FlowTriviaSubmission)
	require.NoError(t, err)
	require.Nil(t, active)
}
