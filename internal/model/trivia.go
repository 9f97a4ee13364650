package model

import "time"

// TriviaQuestionType distinguishes free-text answers from multiple choice.
type TriviaQuestionType string

const (
	TriviaSingleAnswer   TriviaQuestionType = "single_answer"
	TriviaMultipleChoice TriviaQuestionType = "multiple_choice"
)

// TriviaApprovalStatus is the moderator approval workflow state.
type TriviaApprovalStatus string

const (
	TriviaPending  TriviaApprovalStatus = "pending"
	TriviaApproved TriviaApprovalStatus = "approved"
	TriviaRejected TriviaApprovalStatus = "rejected"
)

// TriviaQuestion is a submitted-then-approved trivia prompt.
type TriviaQuestion struct {
	ID             string
	Text           string
	Type           TriviaQuestionType
	CorrectAnswer  string
	Choices        []string
	SubmittedBy    string
	ApprovalStatus TriviaApprovalStatus
	Category       string
}

// TriviaSessionState is the lifecycle state of one active round.
type TriviaSessionState string

const (
	TriviaSessionActive    TriviaSessionState = "active"
	TriviaSessionCompleted TriviaSessionState = "completed"
	TriviaSessionCancelled TriviaSessionState = "cancelled"
)

// TriviaSession is one posted-question round bound to a channel message.
type TriviaSession struct {
	ID                string
	QuestionID        string
	State             TriviaSessionState
	QuestionMessageID string
	ChannelID         string
	StartedAt         time.Time
	EndedAt           *time.Time
	WinnerUserID      string
}

// TriviaMatchKind classifies how a submitted answer matched the correct one.
type TriviaMatchKind string

const (
	MatchExact           TriviaMatchKind = "exact"
	MatchCaseInsensitive TriviaMatchKind = "case_insensitive"
	MatchFuzzy           TriviaMatchKind = "fuzzy"
	MatchAbbreviation    TriviaMatchKind = "abbreviation"
	MatchExpansion       TriviaMatchKind = "expansion"
	MatchPartial         TriviaMatchKind = "partial"
	MatchNone            TriviaMatchKind = "no_match"
)

// TriviaAnswer is one responder's submission, scored and ordered.
type TriviaAnswer struct {
	SessionID string
	UserID    string
	Text      string
	Score     float64
	MatchKind TriviaMatchKind
	Ordinal   int
	CreatedAt time.Time
}

// IsFullMatch reports whether k is one of the "full credit" match kinds
// (spec.md §4.10: exact, case-insensitive, normalized, abbreviation, or
// fuzzy-ratio >= 0.90).
func (k TriviaMatchKind) IsFullMatch() bool {
	switch k {
	case MatchExact, MatchCaseInsensitive, MatchFuzzy, MatchAbbreviation, MatchExpansion:
		return true
	default:
		return false
	}
}
