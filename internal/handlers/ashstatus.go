package handlers

import (
	"context"
	"fmt"

	"github.com/jonesy-ops/ash/internal/platform"
)

// cmdAshStatus implements `!ashstatus` (spec.md §6): operators get a
// detailed health summary, everyone else gets a generic one-liner.
func (h *Handlers) cmdAshStatus(ctx context.Context, msg platform.Message) error {
	isOperator, err := h.requireOperator(ctx, msg.AuthorID)
	if err != nil {
		return err
	}
	if !isOperator {
		return h.reply(ctx, msg, "All systems nominal.")
	}

	aiEnabled, _, err := h.repo.GetConfig(ctx, "ai_enabled")
	if err != nil {
		return err
	}
	if aiEnabled == "" {
		aiEnabled = "true"
	}

	games, err := h.repo.ListGames(ctx)
	if err != nil {
		return err
	}
	reminders, err := h.repo.ListPendingReminders(ctx, "")
	if err != nil {
		return err
	}
	strikes, err := h.repo.AllStrikes(ctx)
	if err != nil {
		return err
	}
	activeStrikes := 0
	for _, s := range strikes {
		if s.Count > 0 {
			activeStrikes++
		}
	}

	return h.reply(ctx, msg, fmt.Sprintf(
		"Ash status:\nAI conversation: %s\nCatalog entries: %d\nPending reminders: %d\nUsers with active strikes: %d",
		aiEnabled, len(games), len(reminders), activeStrikes,
	))
}
