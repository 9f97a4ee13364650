package reminders

import (
	"context"
	"time"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/repository"
)

// Deliverer drives the two reminder-related scheduler sweeps: delivering
// due reminders, and firing grace-period auto-actions on ones that went
// unacknowledged (spec.md §4.8, §4.9).
type Deliverer struct {
	Repo   repository.Repository
	Runner Runner
}

// DeliverDue loads every pending reminder with scheduled_at <= asOf and
// delivers each, moving it out of pending with a compare-and-set after the
// send. A reminder whose send succeeded but whose status update never ran
// (a crash in between) is still pending and is sent again on the next
// sweep.
func (d Deliverer) DeliverDue(ctx context.Context, asOf time.Time) error {
	due, err := d.Repo.DueReminders(ctx, asOf)
	if err != nil {
		return err
	}
	for _, r := range due {
		target := r.ChannelID
		if r.DeliveryKind == model.DeliveryDirectMessage {
			target = r.UserID
		}
		_, sendErr := d.Runner.Gateway.SendMessage(ctx, target, r.Text)
		if sendErr != nil {
			_, _ = d.Repo.CompareAndSetReminderStatus(ctx, r.ID, model.ReminderPending, model.ReminderFailed, asOf, sendErr.Error())
			continue
		}
		if _, err := d.Repo.CompareAndSetReminderStatus(ctx, r.ID, model.ReminderPending, model.ReminderDelivered, asOf, ""); err != nil {
			return err
		}
	}
	return nil
}

// Run is the body of the reminder-delivery sweep (spec.md §4.8): deliver
// every due reminder, then fire grace-period escalations on reminders that
// went unacknowledged. It matches scheduler.Deps.DeliverDueReminders.
func (d Deliverer) Run(ctx context.Context, asOf time.Time) error {
	if err := d.DeliverDue(ctx, asOf); err != nil {
		return err
	}
	return d.runGraceEscalations(ctx, asOf)
}

// runGraceEscalations fires the auto-action for every delivered reminder
// whose grace period has elapsed without one already firing.
func (d Deliverer) runGraceEscalations(ctx context.Context, now time.Time) error {
	pending, err := d.Repo.ListDeliveredRemindersWithPendingAutoAction(ctx)
	if err != nil {
		return err
	}
	for _, r := range pending {
		if !Due(r, now) {
			continue
		}
		if err := d.Runner.Execute(ctx, r); err != nil {
			continue
		}
		if err := d.Repo.MarkReminderAutoActionExecuted(ctx, r.ID, now); err != nil {
			return err
		}
	}
	return nil
}
