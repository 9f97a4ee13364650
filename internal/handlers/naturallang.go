package handlers

import (
	"context"
	"strings"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/platform"
)

// TryHandle implements router.NaturalLanguageHandler: recognize the three
// natural-language command families — reminder creation, announcement-flow
// start, and trivia-submission-flow start — without requiring the `!` sigil.
func (h *Handlers) TryHandle(ctx context.Context, msg platform.Message) (bool, error) {
	text := strings.ToLower(strings.TrimSpace(msg.Content))

	if strings.Contains(text, "remind") {
		return true, h.remindNaturalForm(ctx, msg, msg.Content)
	}

	if strings.Contains(text, "announce") || strings.Contains(text, "announcement") {
		return true, h.startAnnouncementFlow(ctx, msg)
	}

	if strings.Contains(text, "submit trivia") || strings.Contains(text, "trivia question") {
		return true, h.startTriviaSubmissionFlow(ctx, msg)
	}

	return false, nil
}

func (h *Handlers) startAnnouncementFlow(ctx context.Context, msg platform.Message) error {
	if ok, err := h.requireOperator(ctx, msg.AuthorID); err != nil {
		return err
	} else if !ok {
		return h.reply(ctx, msg, "Only operators can draft announcements.")
	}
	if _, err := h.conversations.Start(ctx, msg.AuthorID, model.FlowAnnouncement, stepAnnouncementAwaitingText); err != nil {
		return err
	}
	return h.reply(ctx, msg, "What should the announcement say? Reply with the text, or \"cancel\".")
}

func (h *Handlers) startTriviaSubmissionFlow(ctx context.Context, msg platform.Message) error {
	if _, err := h.conversations.Start(ctx, msg.AuthorID, model.FlowTriviaSubmission, stepTriviaQuestionType); err != nil {
		return err
	}
	return h.reply(ctx, msg, "Is this a single-answer or multiple-choice question? Reply \"single\" or \"choice\", or \"cancel\".")
}
