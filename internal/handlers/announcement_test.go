package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/model"
)

func TestPostWeeklyAnnouncementSummarizesRecentGames(t *testing.T) {
	hh := newTestHandlers(t, Config{AnnouncementChannelID: "announce-chan"})
	ctx := context.Background()

	require.NoError(t, hh.repo.UpsertGame(ctx, &model.Game{
		ID: "g1", CanonicalName: "Celeste", CompletionStatus: model.CompletionCompleted,
		LastValidatedAt: hh.now.Add(-24 * time.Hour),
	}))
	require.NoError(t, hh.repo.UpsertGame(ctx, &model.Game{
		ID: "g2", CanonicalName: "Old Game", CompletionStatus: model.CompletionDropped,
		LastValidatedAt: hh.now.Add(-30 * 24 * time.Hour),
	}))

	require.NoError(t, hh.h.PostWeeklyAnnouncement(ctx))

	sent := hh.gateway.LastSent()
	require.NotNil(t, sent)
	require.Equal(t, "announce-chan", sent.TargetID)
	require.Contains(t, sent.Text, "Celeste (completed)")
	require.NotContains(t, sent.Text, "Old Game")
}

func TestPostWeeklyAnnouncementReportsNoChanges(t *testing.T) {
	hh := newTestHandlers(t, Config{AnnouncementChannelID: "announce-chan"})
	require.NoError(t, hh.h.PostWeeklyAnnouncement(context.Background()))

	sent := hh.gateway.LastSent()
	require.NotNil(t, sent)
	require.Equal(t, "This week's catalog update: no changes to report.", sent.Text)
}
