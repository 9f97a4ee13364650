package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/platform"
)

func TestAshStatusGenericForNonOperator(t *testing.T) {
	hh := newTestHandlers(t, Config{})
	err := hh.h.HandleCommand(context.Background(), platform.Message{AuthorID: "u1", Content: "!ashstatus"})
	require.NoError(t, err)

	sent := hh.gateway.LastSent()
	require.NotNil(t, sent)
	require.Equal(t, "All systems nominal.", sent.Text)
}

func TestAshStatusDetailedForOperator(t *testing.T) {
	hh := newTestHandlers(t, Config{})
	hh.tiers.tiers["op-1"] = platform.TierOperator
	ctx := context.Background()

	require.NoError(t, hh.repo.UpsertGame(ctx, &model.Game{ID: "g1", CanonicalName: "Celeste", CompletionStatus: model.CompletionCompleted}))

	err := hh.h.HandleCommand(ctx, platform.Message{AuthorID: "op-1", Content: "!ashstatus"})
	require.NoError(t, err)

	sent := hh.gateway.LastSent()
	require.NotNil(t, sent)
	require.Contains(t, sent.Text, "Catalog entries: 1")
	require.Contains(t, sent.Text, "Pending reminders: 0")
	require.Contains(t, sent.Text, "Users with active strikes: 0")
}
