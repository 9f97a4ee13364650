package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const weeklyAnnouncementWindow = 7 * 24 * time.Hour

// PostWeeklyAnnouncement implements the scheduler's weekly-announcement
// sweep (spec.md §4.8): summarize the games validated in the last 7 days.
func (h *Handlers) PostWeeklyAnnouncement(ctx context.Context) error {
	games, err := h.repo.ListGames(ctx)
	if err != nil {
		return err
	}

	cutoff := h.now().Add(-weeklyAnnouncementWindow)
	var recent []string
	for _, g := range games {
		if g.LastValidatedAt.After(cutoff) {
			recent = append(recent, fmt.Sprintf("%s (%s)", g.CanonicalName, g.CompletionStatus))
		}
	}

	var text string
	if len(recent) == 0 {
		text = "This week's catalog update: no changes to report."
	} else {
		text = "This week in the catalog:\n" + strings.Join(recent, "\n")
	}
	_, err = h.gateway.SendMessage(ctx, h.cfg.AnnouncementChannelID, text)
	return err
}
