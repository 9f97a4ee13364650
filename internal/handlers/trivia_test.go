package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/platform"
)

func TestTryHandleReplyRecordsMatchingAnswer(t *testing.T) {
	hh := newTestHandlers(t, Config{})
	ctx := context.Background()

	question := &model.TriviaQuestion{ID: "q1", Text: "First console?", CorrectAnswer: "Atari", ApprovalStatus: model.TriviaApproved}
	require.NoError(t, hh.repo.CreateTriviaQuestion(ctx, question))
	require.NoError(t, hh.repo.CreateTriviaSession(ctx, &model.TriviaSession{
		ID:                "s1",
		QuestionID:        "q1",
		State:             model.TriviaSessionActive,
		ChannelID:         "trivia-chan",
		QuestionMessageID: "question-msg-1",
		StartedAt:         hh.now,
	}))

	handled, err := hh.h.TryHandleReply(ctx, platform.Message{
		ID:               "reply-1",
		AuthorID:         "u1",
		Content:          "Atari",
		ReplyToMessageID: "question-msg-1",
	})
	require.NoError(t, err)
	require.True(t, handled)

	answers, err := hh.repo.ListTriviaAnswers(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	require.Equal(t, "u1", answers[0].UserID)
	require.True(t, answers[0].MatchKind.IsFullMatch())
	require.Contains(t, hh.gateway.Reactions, "reply-1:📝")
}

func TestTryHandleReplyIgnoresUnrelatedReply(t *testing.T) {
	hh := newTestHandlers(t, Config{})
	ctx := context.Background()

	handled, err := hh.h.TryHandleReply(ctx, platform.Message{
		ID:               "reply-2",
		AuthorID:         "u1",
		Content:          "whatever",
		ReplyToMessageID: "not-a-question",
	})
	require.NoError(t, err)
	require.False(t, handled)
	require.Empty(t, hh.gateway.Reactions)
}

func TestTryHandleReplyIgnoresPlainMessage(t *testing.T) {
	hh := newTestHandlers(t, Config{})
	ctx := context.Background()

	handled, err := hh.h.TryHandleReply(ctx, platform.Message{AuthorID: "u1", Content: "hello"})
	require.NoError(t, err)
	require.False(t, handled)
}
