package handlers

import (
	"context"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/platform"
	"github.com/jonesy-ops/ash/internal/trivia"
)

// TryHandleReply implements router.TriviaReplyHandler: a reply is a trivia
// answer when its reply target matches an active session's question
// message (spec.md §4.10).
func (h *Handlers) TryHandleReply(ctx context.Context, msg platform.Message) (bool, error) {
	if msg.ReplyToMessageID == "" {
		return false, nil
	}
	session, err := h.repo.ActiveTriviaSessionForMessage(ctx, msg.ReplyToMessageID)
	if err != nil {
		return false, err
	}
	if session == nil || session.State != model.TriviaSessionActive {
		return false, nil
	}

	question, err := h.repo.GetTriviaQuestion(ctx, session.QuestionID)
	if err != nil {
		return false, err
	}
	if question == nil {
		return false, nil
	}

	score, matchKind := trivia.Evaluate(msg.Content, question.CorrectAnswer)

	existing, err := h.repo.ListTriviaAnswers(ctx, session.ID)
	if err != nil {
		return false, err
	}

	answer := &model.TriviaAnswer{
		SessionID: session.ID,
		UserID:    msg.AuthorID,
		Text:      msg.Content,
		Score:     score,
		MatchKind: matchKind,
		Ordinal:   len(existing) + 1,
		CreatedAt: h.now(),
	}
	if err := h.repo.RecordTriviaAnswer(ctx, answer); err != nil {
		return false, err
	}

	if err := h.gateway.React(ctx, msg.ID, "📝"); err != nil {
		return false, err
	}
	return true, nil
}
