package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/trivia"
)

// triviaSessionWindow bounds how long a posted question stays open for
// replies before the sweep closes it out. The source material specifies
// the winner-selection rule (earliest score-1.0 ordinal) but not a
// session duration, so this is a judgment call rather than a quoted value.
const triviaSessionWindow = 10 * time.Minute

// RunTriviaSweep is the trivia-session sweep body: close out any session
// whose window has elapsed, then, if no session is active and an approved
// question that has never backed a session is available, post it and open
// a new one.
func (h *Handlers) RunTriviaSweep(ctx context.Context) error {
	active, err := h.repo.ActiveTriviaSessions(ctx)
	if err != nil {
		return err
	}

	now := h.now()
	stillActive := false
	for _, session := range active {
		if now.Sub(session.StartedAt) < triviaSessionWindow {
			stillActive = true
			continue
		}
		if err := h.completeTriviaSession(ctx, session.ID, now); err != nil {
			return err
		}
	}
	if stillActive {
		return nil
	}
	if h.cfg.TriviaChannelID == "" {
		return nil
	}

	question, err := h.repo.NextUnusedApprovedTriviaQuestion(ctx)
	if err != nil {
		return err
	}
	if question == nil {
		return nil
	}

	text := formatTriviaPrompt(question)
	messageID, err := h.gateway.SendMessage(ctx, h.cfg.TriviaChannelID, text)
	if err != nil {
		return err
	}

	return h.repo.CreateTriviaSession(ctx, &model.TriviaSession{
		ID:                uuid.NewString(),
		QuestionID:        question.ID,
		State:             model.TriviaSessionActive,
		ChannelID:         h.cfg.TriviaChannelID,
		QuestionMessageID: messageID,
		StartedAt:         now,
	})
}

func (h *Handlers) completeTriviaSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	answers, err := h.repo.ListTriviaAnswers(ctx, sessionID)
	if err != nil {
		return err
	}
	winner := trivia.Winner(answers)
	winnerID := ""
	if winner != nil {
		winnerID = winner.UserID
	}
	return h.repo.CompleteTriviaSession(ctx, sessionID, winnerID, endedAt)
}

func formatTriviaPrompt(q *model.TriviaQuestion) string {
	if len(q.Choices) == 0 {
		return fmt.Sprintf("🧠 Trivia time! Reply to this message with your answer:\n%s", q.Text)
	}
	return fmt.Sprintf("🧠 Trivia time! Reply to this message with your answer:\n%s\n%s", q.Text, strings.Join(q.Choices, "\n"))
}
