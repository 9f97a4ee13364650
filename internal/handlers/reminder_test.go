package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/platform"
)

func TestRemindMentionFormUsesConfiguredLocation(t *testing.T) {
	hh := newTestHandlers(t, Config{})
	gmt := time.FixedZone("GMT", 0)
	hh.h.loc = gmt

	err := hh.h.cmdRemind(context.Background(), platform.Message{
		AuthorID:         "123",
		MentionedUserIDs: []string{"123"},
	}, "<@123> 10m check on the build")
	require.NoError(t, err)

	sent := hh.gateway.LastSent()
	require.NotNil(t, sent)
	require.Contains(t, sent.Text, "GMT")

	reminders, err := hh.repo.ListPendingReminders(context.Background(), "123")
	require.NoError(t, err)
	require.Len(t, reminders, 1)
}

func TestRemindNaturalFormStripsFillerWithoutLeadingTo(t *testing.T) {
	hh := newTestHandlers(t, Config{})
	err := hh.h.remindNaturalForm(context.Background(), platform.Message{AuthorID: "u1"}, "remind me in 10 minutes to stand up")
	require.NoError(t, err)

	reminders, err := hh.repo.ListPendingReminders(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	require.Equal(t, "stand up", reminders[0].Text)
}
