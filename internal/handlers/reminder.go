package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/platform"
	"github.com/jonesy-ops/ash/internal/reminders"
)

// cmdRemind implements the `!remind` command's two syntactic families
// (spec.md §4.9): "@user <duration> <text> [| auto:<action>]" when the
// message mentions someone, otherwise natural language anchored to the
// author themself.
func (h *Handlers) cmdRemind(ctx context.Context, msg platform.Message, args string) error {
	if userID, ok := firstMention(msg); ok {
		return h.remindMentionForm(ctx, msg, userID, args)
	}
	return h.remindNaturalForm(ctx, msg, args)
}

func (h *Handlers) remindMentionForm(ctx context.Context, msg platform.Message, targetUserID, args string) error {
	if targetUserID != msg.AuthorID {
		ok, err := h.requireOperator(ctx, msg.AuthorID)
		if err != nil {
			return err
		}
		if !ok {
			return h.reply(ctx, msg, "Setting a reminder for someone else requires operator permission.")
		}
	}

	body := stripMention(args)
	var autoRaw string
	if idx := strings.Index(body, "|"); idx >= 0 {
		autoRaw = strings.TrimSpace(body[idx+1:])
		body = strings.TrimSpace(body[:idx])
	}

	fields := strings.Fields(body)
	if len(fields) < 2 {
		return h.reply(ctx, msg, "Usage: !remind @user <duration> <text>")
	}
	dur, ok := reminders.ParseDuration(fields[0])
	if !ok {
		return h.reply(ctx, msg, fmt.Sprintf("Couldn't parse duration %q.", fields[0]))
	}
	text := strings.TrimSpace(strings.TrimPrefix(body, fields[0]))
	if !reminders.ValidText(text) {
		return h.reply(ctx, msg, "Reminder text must be meaningful, 3-2000 characters.")
	}

	scheduledAt := h.now().In(h.location()).Add(dur)
	r := &model.Reminder{
		ID:          uuid.NewString(),
		UserID:      targetUserID,
		Text:        text,
		ScheduledAt: scheduledAt,
		Status:      model.ReminderPending,
	}
	if msg.IsDM {
		r.DeliveryKind = model.DeliveryDirectMessage
	} else {
		r.DeliveryKind = model.DeliveryChannel
		r.ChannelID = msg.ChannelID
	}
	if autoRaw != "" {
		action, err := parseAutoAction(autoRaw, targetUserID, msg.AuthorID)
		if err != nil {
			return h.reply(ctx, msg, err.Error())
		}
		r.AutoAction = action
	}

	if err := h.repo.CreateReminder(ctx, r); err != nil {
		return err
	}
	return h.reply(ctx, msg, fmt.Sprintf(
		"✅ Reminder set in %s at %s\n%s",
		reminders.FormatDuration(dur), reminders.FormatTime(scheduledAt), text,
	))
}

func parseAutoAction(raw, targetUserID, originatorID string) (*model.AutoAction, error) {
	prefix := "auto:"
	if !strings.HasPrefix(strings.ToLower(raw), prefix) {
		return nil, fmt.Errorf("expected auto:<action>, got %q", raw)
	}
	spec := raw[len(prefix):]
	parts := strings.SplitN(spec, ":", 2)
	kind := model.AutoActionKind(strings.ToLower(strings.TrimSpace(parts[0])))
	action := &model.AutoAction{Kind: kind, TargetUserID: targetUserID, OriginatorID: originatorID}
	if kind == model.AutoActionYouTubePost {
		if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
			return nil, fmt.Errorf("auto:youtube_post requires a payload URL")
		}
		action.PayloadURL = strings.TrimSpace(parts[1])
	}
	switch kind {
	case model.AutoActionMute, model.AutoActionKick, model.AutoActionBan, model.AutoActionYouTubePost:
		return action, nil
	default:
		return nil, fmt.Errorf("unknown auto-action %q", kind)
	}
}

func (h *Handlers) remindNaturalForm(ctx context.Context, msg platform.Message, text string) error {
	result, ok := reminders.ParseNatural(text, h.now(), h.location())
	if !ok {
		return h.reply(ctx, msg, "I couldn't work out when to remind you. Try \"remind me in 10 minutes to ...\".")
	}
	// Collapse the double space ParseNatural's time-phrase excision leaves
	// behind before stripping filler, so "remind me  to stand up" trims the
	// same as "remind me to stand up".
	body := strings.Join(strings.Fields(result.Remainder), " ")
	body = strings.TrimSpace(strings.TrimPrefix(body, "remind me to"))
	body = strings.TrimSpace(strings.TrimPrefix(body, "remind me"))
	body = strings.TrimSpace(strings.TrimPrefix(body, "to"))
	if !reminders.ValidText(body) {
		return h.reply(ctx, msg, "Reminder text must be meaningful, 3-2000 characters.")
	}

	r := &model.Reminder{
		ID:          uuid.NewString(),
		UserID:      msg.AuthorID,
		Text:        body,
		ScheduledAt: result.ScheduledAt,
		Status:      model.ReminderPending,
	}
	if msg.IsDM {
		r.DeliveryKind = model.DeliveryDirectMessage
	} else {
		r.DeliveryKind = model.DeliveryChannel
		r.ChannelID = msg.ChannelID
	}
	if err := h.repo.CreateReminder(ctx, r); err != nil {
		return err
	}
	return h.reply(ctx, msg, fmt.Sprintf("✅ Reminder set for %s\n%s", reminders.FormatTime(r.ScheduledAt), body))
}

// location returns the scheduler timezone handlers uses to anchor relative
// reminder expressions; it defaults to UTC when unset.
func (h *Handlers) location() *time.Location {
	if h.loc != nil {
		return h.loc
	}
	return time.UTC
}
