// Package repository defines the opaque persistence contract the core
// depends on (spec.md §1: "the persistent store, addressed by an opaque
// repository interface"). Two concrete backends implement it — Postgres
// (lib/pq) for DATABASE_URL in production, SQLite (mattn/go-sqlite3) for
// local development and the test suite — over the same database/sql-based
// implementation in sql_repository.go.
package repository

import (
	"context"
	"time"

	"github.com/jonesy-ops/ash/internal/model"
)

// Repository unifies what the original implementation split across two
// near-duplicate database-access modules (spec.md §9 Open Questions).
type Repository interface {
	// Strikes
	GetStrikes(ctx context.Context, userID string) (int, error)
	IncrementStrike(ctx context.Context, userID string) (int, error)
	ResetStrikes(ctx context.Context, userID string) error
	AllStrikes(ctx context.Context) ([]model.StrikeRecord, error)

	// Recommendations
	AddRecommendation(ctx context.Context, rec model.GameRecommendation) error
	ListRecommendations(ctx context.Context) ([]model.GameRecommendation, error)
	RemoveRecommendation(ctx context.Context, idOrIndex string) (bool, error)
	FindRecommendationByName(ctx context.Context, name string) (*model.GameRecommendation, error)

	// Catalog
	UpsertGame(ctx context.Context, g *model.Game) error
	GetGame(ctx context.Context, id string) (*model.Game, error)
	FindGameByExternalID(ctx context.Context, externalID int64) (*model.Game, error)
	FindGameByName(ctx context.Context, name string) (*model.Game, error)
	FindGameByAlternativeName(ctx context.Context, name string) (*model.Game, error)
	ListGames(ctx context.Context) ([]*model.Game, error)
	ListGamesInProgress(ctx context.Context) ([]*model.Game, error)
	RemoveGame(ctx context.Context, idOrName string) (bool, error)

	// Reminders
	CreateReminder(ctx context.Context, r *model.Reminder) error
	GetReminder(ctx context.Context, id string) (*model.Reminder, error)
	ListPendingReminders(ctx context.Context, userID string) ([]*model.Reminder, error)
	DueReminders(ctx context.Context, asOf time.Time) ([]*model.Reminder, error)
	// CompareAndSetReminderStatus atomically transitions a reminder out of
	// pending, guarding against duplicate delivery on crash-recovery
	// (spec.md §4.8 idempotency note).
	CompareAndSetReminderStatus(ctx context.Context, id string, from, to model.ReminderStatus, at time.Time, failErr string) (bool, error)
	CancelReminder(ctx context.Context, id string) (bool, error)
	ListDeliveredRemindersWithPendingAutoAction(ctx context.Context) ([]*model.Reminder, error)
	MarkReminderAutoActionExecuted(ctx context.Context, id string, at time.Time) error

	// Trivia
	CreateTriviaQuestion(ctx context.Context, q *model.TriviaQuestion) error
	UpdateTriviaQuestionApproval(ctx context.Context, id string, status model.TriviaApprovalStatus) error
	GetTriviaQuestion(ctx context.Context, id string) (*model.TriviaQuestion, error)
	ApprovedTriviaQuestions(ctx context.Context) ([]*model.TriviaQuestion, error)
	// NextUnusedApprovedTriviaQuestion returns the approved question with
	// the lowest id that has never backed a session, or nil if there is
	// none. Ids are random UUIDs, so this is not submission order.
	NextUnusedApprovedTriviaQuestion(ctx context.Context) (*model.TriviaQuestion, error)

	CreateTriviaSession(ctx context.Context, s *model.TriviaSession) error
	GetTriviaSession(ctx context.Context, id string) (*model.TriviaSession, error)
	ActiveTriviaSessionForMessage(ctx context.Context, questionMessageID string) (*model.TriviaSession, error)
	ActiveTriviaSessions(ctx context.Context) ([]*model.TriviaSession, error)
	CompleteTriviaSession(ctx context.Context, id string, winnerUserID string, endedAt time.Time) error

	RecordTriviaAnswer(ctx context.Context, a *model.TriviaAnswer) error
	ListTriviaAnswers(ctx context.Context, sessionID string) ([]*model.TriviaAnswer, error)

	// Conversation state
	GetConversationState(ctx context.Context, userID string, flow model.FlowName) (*model.ConversationState, error)
	SaveConversationState(ctx context.Context, s *model.ConversationState) error
	DeleteConversationState(ctx context.Context, userID string, flow model.FlowName) error
	ListConversationStates(ctx context.Context) ([]*model.ConversationState, error)

	// Config key/value store (persona toggle, ai enabled, etc.)
	GetConfig(ctx context.Context, key string) (string, bool, error)
	SetConfig(ctx context.Context, key, value string) error

	Close() error
}
