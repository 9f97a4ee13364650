package handlers

import (
	"context"
	"fmt"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/platform"
)

// HandleStrike implements router.StrikeHandler: apply one strike to
// mentionedUserID unless it's the streamer identity, which never accrues
// strikes (spec.md §3, §8's boundary behavior).
func (h *Handlers) HandleStrike(ctx context.Context, msg platform.Message, mentionedUserID string) error {
	if !model.CanStrike(mentionedUserID) || mentionedUserID == h.cfg.StreamerUserID {
		h.log.Info().Str("user_id", mentionedUserID).Msg("handlers: strike attempted on streamer identity, ignored")
		return nil
	}
	count, err := h.repo.IncrementStrike(ctx, mentionedUserID)
	if err != nil {
		return err
	}
	return h.reply(ctx, msg, fmt.Sprintf("<@%s> now has %d strike(s).", mentionedUserID, count))
}
