package model

import "time"

// ReminderDeliveryKind is where a reminder is delivered.
type ReminderDeliveryKind string

const (
	DeliveryDirectMessage ReminderDeliveryKind = "direct_message"
	DeliveryChannel       ReminderDeliveryKind = "channel"
)

// ReminderStatus is the lifecycle state of a Reminder.
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderDelivered ReminderStatus = "delivered"
	ReminderCancelled ReminderStatus = "cancelled"
	ReminderFailed    ReminderStatus = "failed"
)

// AutoActionKind is an escalation taken when an operator never responds to
// a reminder within its grace window (spec.md §4.9).
type AutoActionKind string

const (
	AutoActionMute        AutoActionKind = "mute"
	AutoActionKick        AutoActionKind = "kick"
	AutoActionBan         AutoActionKind = "ban"
	AutoActionYouTubePost AutoActionKind = "youtube_post"
)

// AutoAction describes the escalation to run if a reminder's grace period
// elapses with no operator response.
type AutoAction struct {
	Kind         AutoActionKind
	TargetUserID string
	PayloadURL   string
	OriginatorID string
}

// Reminder is a scheduled, one-shot delivery of text to a user.
type Reminder struct {
	ID           string
	UserID       string
	Text         string
	ScheduledAt  time.Time
	DeliveryKind ReminderDeliveryKind
	ChannelID    string
	Status       ReminderStatus
	AutoAction   *AutoAction
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	FailedAt     *time.Time
	LastError    string
	// AutoActionExecutedAt marks when the grace-period escalation fired,
	// guarding against re-firing it on every scheduler sweep.
	AutoActionExecutedAt *time.Time
}

// ValidText reports whether text satisfies spec.md §3's 3-2000 character,
// not-purely-whitespace-or-punctuation invariant.
func ValidText(text string) bool {
	trimmed := []rune(text)
	if len(trimmed) < 3 || len(trimmed) > 2000 {
		return false
	}
	hasWordChar := false
	for _, r := range trimmed {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			hasWordChar = true
			break
		}
	}
	return hasWordChar
}
