package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonesy-ops/ash/internal/aidispatcher"
	"github.com/jonesy-ops/ash/internal/aierrors"
	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/platform"
)

// Step identifiers for the three conversational flows (spec.md §4.10's
// submission flow steps and §3's announcement/approval flows).
const (
	stepAnnouncementAwaitingText = "awaiting_text"
	stepAnnouncementPreview      = "preview"

	stepTriviaQuestionType = "question_type_selection"
	stepTriviaQuestionText = "question_input"
	stepTriviaAnswerInput  = "answer_input"
	stepTriviaPreview      = "preview"

	stepApprovalAwaitingDecision = "awaiting_decision"
)

// HandleConversation implements router.ConversationHandler: route the
// message through AIDispatcher using the author's resolved tier.
func (h *Handlers) HandleConversation(ctx context.Context, msg platform.Message) error {
	if h.dispatcher == nil {
		return nil
	}
	tier, err := h.tiers.ResolveTier(ctx, msg.AuthorID)
	if err != nil {
		return err
	}
	resp := h.dispatcher.Dispatch(ctx, aidispatcher.Request{
		UserID:    msg.AuthorID,
		Tier:      tier,
		Priority:  model.PriorityMedium,
		Prompt:    msg.Content,
		QueryType: model.QueryGeneral,
	})
	if resp.Outcome != aierrors.OutcomeOK {
		if !h.backpressure.allow(msg.AuthorID, string(resp.Outcome), h.now()) {
			return nil
		}
		return h.reply(ctx, msg, "I'm having trouble answering right now — try again shortly.")
	}
	return h.reply(ctx, msg, resp.Text)
}

// HandleConversationStep implements router.ConversationStepHandler:
// dispatch to the active flow's step handler.
func (h *Handlers) HandleConversationStep(ctx context.Context, msg platform.Message, state *model.ConversationState) error {
	switch state.Flow {
	case model.FlowAnnouncement:
		return h.stepAnnouncement(ctx, msg, state)
	case model.FlowTriviaSubmission:
		return h.stepTriviaSubmission(ctx, msg, state)
	case model.FlowApproval:
		return h.stepApproval(ctx, msg, state)
	default:
		return h.conversations.Cancel(ctx, msg.AuthorID, state.Flow)
	}
}

func isCancel(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "cancel")
}

func (h *Handlers) stepAnnouncement(ctx context.Context, msg platform.Message, state *model.ConversationState) error {
	if isCancel(msg.Content) {
		_ = h.conversations.Cancel(ctx, msg.AuthorID, state.Flow)
		return h.reply(ctx, msg, "Announcement draft cancelled.")
	}

	switch state.Step {
	case stepAnnouncementAwaitingText:
		_, err := h.conversations.Advance(ctx, msg.AuthorID, state.Flow, stepAnnouncementPreview, map[string]any{"draft": msg.Content})
		if err != nil {
			return err
		}
		return h.reply(ctx, msg, fmt.Sprintf("Preview:\n%s\n\nReply \"confirm\" to post, \"edit\" to redo, or \"cancel\".", msg.Content))
	case stepAnnouncementPreview:
		switch strings.ToLower(strings.TrimSpace(msg.Content)) {
		case "confirm":
			draft, _ := state.Data["draft"].(string)
			if err := h.conversations.Cancel(ctx, msg.AuthorID, state.Flow); err != nil {
				return err
			}
			if _, err := h.gateway.SendMessage(ctx, h.cfg.AnnouncementChannelID, draft); err != nil {
				return err
			}
			return h.reply(ctx, msg, "Announcement posted.")
		case "edit":
			_, err := h.conversations.Advance(ctx, msg.AuthorID, state.Flow, stepAnnouncementAwaitingText, nil)
			if err != nil {
				return err
			}
			return h.reply(ctx, msg, "What should the announcement say instead?")
		default:
			return h.reply(ctx, msg, "Reply \"confirm\", \"edit\", or \"cancel\".")
		}
	default:
		return h.conversations.Cancel(ctx, msg.AuthorID, state.Flow)
	}
}

func (h *Handlers) stepTriviaSubmission(ctx context.Context, msg platform.Message, state *model.ConversationState) error {
	if isCancel(msg.Content) {
		_ = h.conversations.Cancel(ctx, msg.AuthorID, state.Flow)
		return h.reply(ctx, msg, "Trivia submission cancelled.")
	}

	switch state.Step {
	case stepTriviaQuestionType:
		var qType model.TriviaQuestionType
		switch strings.ToLower(strings.TrimSpace(msg.Content)) {
		case "single":
			qType = model.TriviaSingleAnswer
		case "choice", "multiple", "multiple choice":
			qType = model.TriviaMultipleChoice
		default:
			return h.reply(ctx, msg, "Reply \"single\" or \"choice\".")
		}
		if _, err := h.conversations.Advance(ctx, msg.AuthorID, state.Flow, stepTriviaQuestionText, map[string]any{"type": string(qType)}); err != nil {
			return err
		}
		return h.reply(ctx, msg, "What's the question text?")
	case stepTriviaQuestionText:
		if _, err := h.conversations.Advance(ctx, msg.AuthorID, state.Flow, stepTriviaAnswerInput, map[string]any{"question": msg.Content}); err != nil {
			return err
		}
		return h.reply(ctx, msg, "What's the correct answer?")
	case stepTriviaAnswerInput:
		if _, err := h.conversations.Advance(ctx, msg.AuthorID, state.Flow, stepTriviaPreview, map[string]any{"answer": msg.Content}); err != nil {
			return err
		}
		question, _ := state.Data["question"].(string)
		return h.reply(ctx, msg, fmt.Sprintf("Preview:\nQ: %s\nA: %s\n\nReply \"confirm\" to submit for approval, \"edit\" to redo, or \"cancel\".", question, msg.Content))
	case stepTriviaPreview:
		switch strings.ToLower(strings.TrimSpace(msg.Content)) {
		case "confirm":
			return h.submitTriviaForApproval(ctx, msg, state)
		case "edit":
			if _, err := h.conversations.Advance(ctx, msg.AuthorID, state.Flow, stepTriviaQuestionText, nil); err != nil {
				return err
			}
			return h.reply(ctx, msg, "What's the question text?")
		default:
			return h.reply(ctx, msg, "Reply \"confirm\", \"edit\", or \"cancel\".")
		}
	default:
		return h.conversations.Cancel(ctx, msg.AuthorID, state.Flow)
	}
}

func (h *Handlers) submitTriviaForApproval(ctx context.Context, msg platform.Message, state *model.ConversationState) error {
	qType, _ := state.Data["type"].(string)
	question, _ := state.Data["question"].(string)
	answer, _ := state.Data["answer"].(string)

	q := &model.TriviaQuestion{
		ID:             uuid.NewString(),
		Text:           question,
		Type:           model.TriviaQuestionType(qType),
		CorrectAnswer:  answer,
		SubmittedBy:    msg.AuthorID,
		ApprovalStatus: model.TriviaPending,
	}
	if err := h.repo.CreateTriviaQuestion(ctx, q); err != nil {
		return err
	}
	if err := h.conversations.Cancel(ctx, msg.AuthorID, state.Flow); err != nil {
		return err
	}
	if h.cfg.CreatorUserID != "" {
		if _, err := h.conversations.Start(ctx, h.cfg.CreatorUserID, model.FlowApproval, stepApprovalAwaitingDecision); err != nil {
			return err
		}
		_, _ = h.conversations.Advance(ctx, h.cfg.CreatorUserID, model.FlowApproval, stepApprovalAwaitingDecision, map[string]any{"question_id": q.ID})
		_, err := h.gateway.SendMessage(ctx, h.cfg.CreatorUserID, fmt.Sprintf(
			"New trivia submission from <@%s>:\nQ: %s\nA: %s\n\n1/approve, 2/modify, 3/reject", msg.AuthorID, question, answer,
		))
		if err != nil {
			return err
		}
	}
	return h.reply(ctx, msg, "Submitted for moderator approval.")
}

func (h *Handlers) stepApproval(ctx context.Context, msg platform.Message, state *model.ConversationState) error {
	questionID, _ := state.Data["question_id"].(string)
	choice := strings.ToLower(strings.TrimSpace(msg.Content))

	switch {
	case choice == "1" || choice == "approve":
		if err := h.repo.UpdateTriviaQuestionApproval(ctx, questionID, model.TriviaApproved); err != nil {
			return err
		}
		if err := h.conversations.Cancel(ctx, msg.AuthorID, state.Flow); err != nil {
			return err
		}
		return h.reply(ctx, msg, "Question approved.")
	case choice == "3" || choice == "reject":
		if err := h.repo.UpdateTriviaQuestionApproval(ctx, questionID, model.TriviaRejected); err != nil {
			return err
		}
		if err := h.conversations.Cancel(ctx, msg.AuthorID, state.Flow); err != nil {
			return err
		}
		return h.reply(ctx, msg, "Question rejected.")
	case choice == "2" || choice == "modify":
		return h.reply(ctx, msg, "Modification isn't implemented yet — reject and ask the submitter to resubmit.")
	default:
		return h.reply(ctx, msg, "Reply 1/approve, 2/modify, or 3/reject.")
	}
}
