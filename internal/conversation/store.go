// Package conversation tracks per-user multi-step dialogs (announcement
// drafting, trivia submission, moderator approval) on top of the
// Repository's per-(user, flow) conversation_states table.
package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/repository"
)

// Store is the lifecycle-owning wrapper around the repository's
// conversation state rows: start, advance, cancel, and idle-expiry sweep.
type Store struct {
	repo repository.Repository
	now  func() time.Time
	// ttlByFlow overrides model.DefaultIdleTTL per flow; flows absent from
	// the map use the default.
	ttlByFlow map[model.FlowName]time.Duration
}

// New constructs a Store over repo.
func New(repo repository.Repository) *Store {
	return &Store{repo: repo, now: time.Now, ttlByFlow: map[model.FlowName]time.Duration{}}
}

// Active returns the live state for (userID, flow), or nil if none exists.
func (s *Store) Active(ctx context.Context, userID string, flow model.FlowName) (*model.ConversationState, error) {
	return s.repo.GetConversationState(ctx, userID, flow)
}

// ActiveAny returns the user's active conversation state regardless of
// flow, or nil if none exists. The router's rule 2 (live dialog dispatch)
// doesn't know in advance which flow a user might be mid-way through.
func (s *Store) ActiveAny(ctx context.Context, userID string) (*model.ConversationState, error) {
	states, err := s.repo.ListConversationStates(ctx)
	if err != nil {
		return nil, err
	}
	for _, state := range states {
		if state.UserID == userID {
			return state, nil
		}
	}
	return nil, nil
}

// Start creates a new conversation state at the given first step, failing
// if one is already active for (userID, flow) — a dialog must be cancelled
// or completed before a new one of the same kind can begin.
func (s *Store) Start(ctx context.Context, userID string, flow model.FlowName, firstStep string) (*model.ConversationState, error) {
	existing, err := s.repo.GetConversationState(ctx, userID, flow)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("conversation: %s already has an active %s flow", userID, flow)
	}
	state := &model.ConversationState{
		UserID:       userID,
		Flow:         flow,
		Step:         firstStep,
		Data:         map[string]any{},
		LastActivity: s.now(),
	}
	if err := s.repo.SaveConversationState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Advance moves an existing state to a new step, merging newData into the
// accumulated data map, and touches last-activity.
func (s *Store) Advance(ctx context.Context, userID string, flow model.FlowName, step string, newData map[string]any) (*model.ConversationState, error) {
	state, err := s.repo.GetConversationState(ctx, userID, flow)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("conversation: no active %s flow for %s", flow, userID)
	}
	if state.Data == nil {
		state.Data = map[string]any{}
	}
	for k, v := range newData {
		state.Data[k] = v
	}
	state.Step = step
	state.LastActivity = s.now()
	if err := s.repo.SaveConversationState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Cancel removes the active state for (userID, flow), as happens on
// explicit user "cancel" input.
func (s *Store) Cancel(ctx context.Context, userID string, flow model.FlowName) error {
	return s.repo.DeleteConversationState(ctx, userID, flow)
}

// ttlFor returns the configured idle TTL for flow, defaulting to
// model.DefaultIdleTTL.
func (s *Store) ttlFor(flow model.FlowName) time.Duration {
	if ttl, ok := s.ttlByFlow[flow]; ok {
		return ttl
	}
	return model.DefaultIdleTTL
}

// Sweep expires every conversation state idle longer than its flow's TTL.
// It returns the number of states removed.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	states, err := s.repo.ListConversationStates(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	removed := 0
	for _, state := range states {
		if state.Expired(now, s.ttlFor(state.Flow)) {
			if err := s.repo.DeleteConversationState(ctx, state.UserID, state.Flow); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
