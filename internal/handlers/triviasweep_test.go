package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/model"
)

func TestRunTriviaSweepPostsWaitingQuestion(t *testing.T) {
	hh := newTestHandlers(t, Config{TriviaChannelID: "trivia-chan"})
	ctx := context.Background()

	require.NoError(t, hh.repo.CreateTriviaQuestion(ctx, &model.TriviaQuestion{
		ID: "q1", Text: "First console?", CorrectAnswer: "Atari", ApprovalStatus: model.TriviaApproved,
	}))

	require.NoError(t, hh.h.RunTriviaSweep(ctx))

	sent := hh.gateway.LastSent()
	require.NotNil(t, sent)
	require.Equal(t, "trivia-chan", sent.TargetID)
	require.Contains(t, sent.Text, "First console?")

	sessions, err := hh.repo.ActiveTriviaSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "q1", sessions[0].QuestionID)
}

func TestRunTriviaSweepSkipsWithoutTriviaChannel(t *testing.T) {
	hh := newTestHandlers(t, Config{})
	ctx := context.Background()

	require.NoError(t, hh.repo.CreateTriviaQuestion(ctx, &model.TriviaQuestion{
		ID: "q1", Text: "First console?", CorrectAnswer: "Atari", ApprovalStatus: model.TriviaApproved,
	}))

	require.NoError(t, hh.h.RunTriviaSweep(ctx))
	require.Nil(t, hh.gateway.LastSent())
}

func TestRunTriviaSweepLeavesFreshSessionOpen(t *testing.T) {
	hh := newTestHandlers(t, Config{TriviaChannelID: "trivia-chan"})
	ctx := context.Background()

	require.NoError(t, hh.repo.CreateTriviaQuestion(ctx, &model.TriviaQuestion{
		ID: "q1", ApprovalStatus: model.TriviaApproved,
	}))
	require.NoError(t, hh.repo.CreateTriviaSession(ctx, &model.TriviaSession{
		ID: "s1", QuestionID: "q1", State: model.TriviaSessionActive,
		ChannelID: "trivia-chan", QuestionMessageID: "msg-1", StartedAt: hh.now,
	}))

	require.NoError(t, hh.h.RunTriviaSweep(ctx))

	sessions, err := hh.repo.ActiveTriviaSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Nil(t, hh.gateway.LastSent())
}

func TestRunTriviaSweepCompletesExpiredSessionWithWinner(t *testing.T) {
	hh := newTestHandlers(t, Config{TriviaChannelID: "trivia-chan"})
	ctx := context.Background()

	require.NoError(t, hh.repo.CreateTriviaQuestion(ctx, &model.TriviaQuestion{
		ID: "q1", CorrectAnswer: "Atari", ApprovalStatus: model.TriviaApproved,
	}))
	require.NoError(t, hh.repo.CreateTriviaSession(ctx, &model.TriviaSession{
		ID: "s1", QuestionID: "q1", State: model.TriviaSessionActive,
		ChannelID: "trivia-chan", QuestionMessageID: "msg-1",
		StartedAt: hh.now.Add(-11 * time.Minute),
	}))
	require.NoError(t, hh.repo.RecordTriviaAnswer(ctx, &model.TriviaAnswer{
		SessionID: "s1", UserID: "winner-1", Text: "Atari",
		Score: 1.0, MatchKind: model.MatchExact, Ordinal: 1, CreatedAt: hh.now,
	}))

	require.NoError(t, hh.h.RunTriviaSweep(ctx))

	session, err := hh.repo.GetTriviaSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, model.TriviaSessionCompleted, session.State)
	require.Equal(t, "winner-1", session.WinnerUserID)

	// q1 already backed a (now completed) session, so it's no longer
	// "unused" and nothing new gets posted with no other question waiting.
	require.Nil(t, hh.gateway.LastSent())
}
