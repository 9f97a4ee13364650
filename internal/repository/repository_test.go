package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/model"
)

func openTestRepo(t *testing.T) Repository {
	t.Helper()
	repo, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestStrikesRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	n, err := repo.GetStrikes(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 0, n)

	n, err = repo.IncrementStrike(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = repo.IncrementStrike(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, repo.ResetStrikes(ctx, "user-1"))
	n, err = repo.GetStrikes(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestStreamerCannotStrike(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.IncrementStrike(context.Background(), model.StreamerUserID)
	require.Error(t, err)
}

func TestGameUpsertAndLookup(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	eid := int64(42)

	g := &model.Game{
		ID:                uuid.NewString(),
		CanonicalName:     "Hollow Knight",
		AlternativeNames:  []string{"HK"},
		CompletionStatus:  model.CompletionInProgress,
		ExternalID:        &eid,
		Confidence:        0.95,
		LastValidatedAt:   time.Now(),
		TotalEpisodes:     3,
		TotalPlaytimeMins: 180,
	}
	require.NoError(t, repo.UpsertGame(ctx, g))

	got, err := repo.GetGame(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Hollow Knight", got.CanonicalName)
	require.Equal(t, []string{"HK"}, got.AlternativeNames)
	require.NotNil(t, got.ExternalID)
	require.Equal(t, int64(42), *got.ExternalID)

	byName, err := repo.FindGameByName(ctx, "hollow knight")
	require.NoError(t, err)
	require.NotNil(t, byName)
	require.Equal(t, g.ID, byName.ID)

	byAlt, err := repo.FindGameByAlternativeName(ctx, "hk")
	require.NoError(t, err)
	require.NotNil(t, byAlt)
	require.Equal(t, g.ID, byAlt.ID)

	inProgress, err := repo.ListGamesInProgress(ctx)
	require.NoError(t, err)
	require.Len(t, inProgress, 1)

	g.TotalEpisodes = 5
	require.NoError(t, repo.UpsertGame(ctx, g))
	got, err = repo.GetGame(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, 5, got.TotalEpisodes)

	removed, err := repo.RemoveGame(ctx, g.ID)
	require.NoError(t, err)
	require.True(t, removed)
}

func TestGameRequiresExternalID(t *testing.T) {
	repo := openTestRepo(t)
	g := &model.Game{
		ID:               uuid.NewString(),
		CanonicalName:    "Unknown Thing",
		CompletionStatus: model.CompletionUnknown,
		Confidence:       0.9,
	}
	err := repo.UpsertGame(context.Background(), g)
	require.Error(t, err)
}

func TestReminderLifecycle(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	rem := &model.Reminder{
		ID:           uuid.NewString(),
		UserID:       "user-1",
		Text:         "check the stream overlay",
		ScheduledAt:  now.Add(time.Hour),
		DeliveryKind: model.DeliveryDirectMessage,
		Status:       model.ReminderPending,
	}
	require.NoError(t, repo.CreateReminder(ctx, rem))

	pending, err := repo.ListPendingReminders(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	due, err := repo.DueReminders(ctx, now)
	require.NoError(t, err)
	require.Empty(t, due)

	due, err = repo.DueReminders(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)

	ok, err := repo.CompareAndSetReminderStatus(ctx, rem.ID, model.ReminderPending, model.ReminderDelivered, now.Add(2*time.Hour), "")
	require.NoError(t, err)
	require.True(t, ok)

	// A second transition from the now-stale "pending" state must fail.
	ok, err = repo.CompareAndSetReminderStatus(ctx, rem.ID, model.ReminderPending, model.ReminderDelivered, now.Add(2*time.Hour), "")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTriviaQuestionAndSessionFlow(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	q := &model.TriviaQuestion{
		ID:             uuid.NewString(),
		Text:           "What year did the first stream air?",
		Type:           model.TriviaSingleAnswer,
		CorrectAnswer:  "2019",
		SubmittedBy:    "mod-1",
		ApprovalStatus: model.TriviaPending,
	}
	require.NoError(t, repo.CreateTriviaQuestion(ctx, q))
	require.NoError(t, repo.UpdateTriviaQuestionApproval(ctx, q.ID, model.TriviaApproved))

	approved, err := repo.ApprovedTriviaQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 1)

	session := &model.TriviaSession{
		ID:                uuid.NewString(),
		QuestionID:        q.ID,
		State:             model.TriviaSessionActive,
		ChannelID:         "chan-1",
		QuestionMessageID: "msg-1",
		StartedAt:         time.Now(),
	}
	require.NoError(t, repo.CreateTriviaSession(ctx, session))

	active, err := repo.ActiveTriviaSessionForMessage(ctx, "msg-1")
	require.NoError(t, err)
	require.NotNil(t, active)

	ans := &model.TriviaAnswer{
		SessionID: session.ID,
		UserID:    "user-1",
		Text:      "2019",
		Score:     1.0,
		MatchKind: model.MatchExact,
		Ordinal:   1,
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.RecordTriviaAnswer(ctx, ans))

	answers, err := repo.ListTriviaAnswers(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)

	require.NoError(t, repo.CompleteTriviaSession(ctx, session.ID, "user-1", time.Now()))
	got, err := repo.GetTriviaSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, model.TriviaSessionCompleted, got.State)
	require.Equal(t, "user-1", got.WinnerUserID)
}

func TestConversationStateRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	s := &model.ConversationState{
		UserID:       "user-1",
		Flow:         model.FlowAnnouncement,
		Step:         "awaiting_text",
		Data:         map[string]any{"draft": "hello"},
		LastActivity: time.Now(),
	}
	require.NoError(t, repo.SaveConversationState(ctx, s))

	got, err := repo.GetConversationState(ctx, "user-1", model.FlowAnnouncement)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "awaiting_text", got.Step)
	require.Equal(t, "hello", got.Data["draft"])

	require.NoError(t, repo.DeleteConversationState(ctx, "user-1", model.FlowAnnouncement))
	got, err = repo.GetConversationState(ctx, "user-1", model.FlowAnnouncement)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestConfigRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	_, ok, err := repo.GetConfig(ctx, "ai_enabled")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.SetConfig(ctx, "ai_enabled", "true"))
	v, ok, err := repo.GetConfig(ctx, "ai_enabled")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "true", v)

	require.NoError(t, repo.SetConfig(ctx, "ai_enabled", "false"))
	v, ok, err = repo.GetConfig(ctx, "ai_enabled")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "false", v)
}
