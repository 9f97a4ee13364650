package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/platform"
)

func TestAddGameThenSecondAddGameBothSucceed(t *testing.T) {
	hh := newTestHandlers(t, Config{})
	ctx := context.Background()

	require.NoError(t, hh.h.cmdAddGame(ctx, platform.Message{AuthorID: "u1"}, "Outer Wilds - great exploration game"))
	require.NoError(t, hh.h.cmdAddGame(ctx, platform.Message{AuthorID: "u2"}, "Celeste - tight platforming"))

	recs, err := hh.repo.ListRecommendations(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.NotEqual(t, recs[0].ID, recs[1].ID)
	require.NotEmpty(t, recs[0].ID)
	require.NotEmpty(t, recs[1].ID)
}

func TestAddPlayedGameThenSecondAddDoesNotOverwriteFirst(t *testing.T) {
	hh := newTestHandlers(t, Config{})
	hh.tiers.tiers["op-1"] = platform.TierOperator
	ctx := context.Background()

	require.NoError(t, hh.h.cmdAddPlayedGame(ctx, platform.Message{AuthorID: "op-1"}, "Hollow Knight"))
	require.NoError(t, hh.h.cmdAddPlayedGame(ctx, platform.Message{AuthorID: "op-1"}, "Celeste"))

	games, err := hh.repo.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 2)
	names := []string{games[0].CanonicalName, games[1].CanonicalName}
	require.ElementsMatch(t, []string{"Hollow Knight", "Celeste"}, names)
}

func TestRemoveGameByIndex(t *testing.T) {
	hh := newTestHandlers(t, Config{})
	hh.tiers.tiers["op-1"] = platform.TierOperator
	ctx := context.Background()

	require.NoError(t, hh.h.cmdAddGame(ctx, platform.Message{AuthorID: "u1"}, "Outer Wilds - great exploration game"))
	require.NoError(t, hh.h.cmdAddGame(ctx, platform.Message{AuthorID: "u2"}, "Celeste - tight platforming"))

	require.NoError(t, hh.h.cmdRemoveGame(ctx, platform.Message{AuthorID: "op-1"}, "1"))

	recs, err := hh.repo.ListRecommendations(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "Celeste", recs[0].Name)
}

func TestRemoveGameByName(t *testing.T) {
	hh := newTestHandlers(t, Config{})
	hh.tiers.tiers["op-1"] = platform.TierOperator
	ctx := context.Background()

	require.NoError(t, hh.h.cmdAddGame(ctx, platform.Message{AuthorID: "u1"}, "Outer Wilds - great exploration game"))

	require.NoError(t, hh.h.cmdRemoveGame(ctx, platform.Message{AuthorID: "op-1"}, "Outer Wilds"))

	recs, err := hh.repo.ListRecommendations(ctx)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestRemoveGameNoMatchReportsFailure(t *testing.T) {
	hh := newTestHandlers(t, Config{})
	hh.tiers.tiers["op-1"] = platform.TierOperator
	ctx := context.Background()

	require.NoError(t, hh.h.cmdRemoveGame(ctx, platform.Message{AuthorID: "op-1"}, "Nonexistent Game"))

	sent := hh.gateway.LastSent()
	require.NotNil(t, sent)
	require.Contains(t, sent.Text, "No recommendation matching")
}
