package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/conversation"
	"github.com/jonesy-ops/ash/internal/platform"
	"github.com/jonesy-ops/ash/internal/platformtest"
	"github.com/jonesy-ops/ash/internal/repository"
)

// fakeTierResolver returns a fixed tier for every user, set up per test
// rather than derived from any real guild role lookup.
type fakeTierResolver struct {
	tiers map[string]platform.Tier
}

func (f *fakeTierResolver) ResolveTier(_ context.Context, userID string) (platform.Tier, error) {
	if t, ok := f.tiers[userID]; ok {
		return t, nil
	}
	return platform.TierStandard, nil
}

type testHarness struct {
	h       *Handlers
	repo    repository.Repository
	gateway *platformtest.Gateway
	tiers   *fakeTierResolver
	now     time.Time
}

// newTestHandlers wires a Handlers over an in-memory SQLite repository and
// recording fakes, the same harness shape router_test.go and
// conversation/store_test.go use for their own in-memory suites.
func newTestHandlers(t *testing.T, cfg Config) *testHarness {
	t.Helper()
	repo, err := repository.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	gateway := platformtest.New()
	tiers := &fakeTierResolver{tiers: map[string]platform.Tier{}}
	convStore := conversation.New(repo)

	h := New(repo, gateway, tiers, convStore, nil, nil, cfg, zerolog.Nop())
	fixedNow := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixedNow }

	return &testHarness{h: h, repo: repo, gateway: gateway, tiers: tiers, now: fixedNow}
}
