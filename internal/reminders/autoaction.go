package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/platform"
)

// GracePeriod is how long after a reminder's scheduled instant an
// unacknowledged auto-action waits before it fires (spec.md §4.9).
const GracePeriod = 5 * time.Minute

// Due reports whether r's auto-action grace period has elapsed as of now
// and the reminder hasn't already been acted on.
func Due(r *model.Reminder, now time.Time) bool {
	if r.AutoAction == nil {
		return false
	}
	if r.Status != model.ReminderDelivered {
		return false
	}
	return now.After(r.ScheduledAt.Add(GracePeriod))
}

// YouTubePostChannelID is where a youtube_post auto-action's payload URL
// is announced.
type Runner struct {
	Gateway              platform.Gateway
	GuildID              string
	YouTubePostChannelID string
}

// Execute runs r's configured auto-action via the gateway.
func (run Runner) Execute(ctx context.Context, r *model.Reminder) error {
	action := r.AutoAction
	if action == nil {
		return nil
	}
	reason := fmt.Sprintf("no response to reminder within grace period: %s", r.Text)
	switch action.Kind {
	case model.AutoActionMute:
		return run.Gateway.Mute(ctx, run.GuildID, action.TargetUserID, reason)
	case model.AutoActionKick:
		return run.Gateway.Kick(ctx, run.GuildID, action.TargetUserID, reason)
	case model.AutoActionBan:
		return run.Gateway.Ban(ctx, run.GuildID, action.TargetUserID, reason)
	case model.AutoActionYouTubePost:
		_, err := run.Gateway.SendMessage(ctx, run.YouTubePostChannelID, action.PayloadURL)
		return err
	default:
		return fmt.Errorf("reminders: unknown auto-action kind %q", action.Kind)
	}
}
