package model

import "time"

// FlowName identifies a multi-step conversational dialog.
type FlowName string

const (
	FlowAnnouncement     FlowName = "announcement"
	FlowTriviaSubmission FlowName = "trivia_submission"
	FlowApproval         FlowName = "approval"
)

// DefaultIdleTTL is the default time a conversation can sit idle before a
// sweep considers it abandoned (spec.md §3).
const DefaultIdleTTL = time.Hour

// ConversationState is a per-user, per-flow dialog record.
type ConversationState struct {
	UserID       string
	Flow         FlowName
	Step         string
	Data         map[string]any
	LastActivity time.Time
}

// Expired reports whether the state has been idle longer than ttl as of now.
func (c *ConversationState) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.LastActivity) > ttl
}
