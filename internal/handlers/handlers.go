// Package handlers implements every command, query, conversation-flow
// step, and moderation action the router dispatches to (spec.md §4.1's
// handler set, §6's command table, §4.9's reminder handlers, §4.10's
// trivia flows). It depends only on the narrow interfaces the repository,
// platform gateway, AI dispatcher, and catalog ingestor packages expose,
// the same separation the teacher's pkg/bridge and pkg/connector hold
// between orchestration and transport.
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonesy-ops/ash/internal/aidispatcher"
	"github.com/jonesy-ops/ash/internal/catalog"
	"github.com/jonesy-ops/ash/internal/conversation"
	"github.com/jonesy-ops/ash/internal/platform"
	"github.com/jonesy-ops/ash/internal/repository"
)

// Config carries the channel and identity wiring handlers need that isn't
// otherwise reachable through the repository or gateway.
type Config struct {
	GuildID               string
	AnnouncementChannelID string
	TriviaChannelID       string
	YouTubePostChannelID  string
	CreatorUserID         string
	StreamerUserID        string
	Location              *time.Location
}

// Handlers implements every router dependency interface
// (CommandHandler, ConversationStepHandler, StrikeHandler,
// NaturalLanguageHandler, QueryHandler, ConversationHandler,
// TriviaReplyHandler) over one shared set of collaborators.
type Handlers struct {
	repo          repository.Repository
	gateway       platform.Gateway
	tiers         platform.TierResolver
	conversations *conversation.Store
	dispatcher    *aidispatcher.Dispatcher
	ingestor      *catalog.Ingestor
	cfg           Config
	now           func() time.Time
	loc           *time.Location
	log           zerolog.Logger

	backpressure *backpressureTracker
}

// New constructs a Handlers value over its collaborators.
func New(repo repository.Repository, gateway platform.Gateway, tiers platform.TierResolver, conversations *conversation.Store, dispatcher *aidispatcher.Dispatcher, ingestor *catalog.Ingestor, cfg Config, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo:          repo,
		gateway:       gateway,
		tiers:         tiers,
		conversations: conversations,
		dispatcher:    dispatcher,
		ingestor:      ingestor,
		cfg:           cfg,
		now:           time.Now,
		loc:           cfg.Location,
		log:           log,
		backpressure:  newBackpressureTracker(),
	}
}

// reply sends text back to msg's origin: the author directly for a DM,
// the inbound channel otherwise.
func (h *Handlers) reply(ctx context.Context, msg platform.Message, text string) error {
	target := msg.ChannelID
	if msg.IsDM {
		target = msg.AuthorID
	}
	_, err := h.gateway.SendMessage(ctx, target, text)
	return err
}

// requireOperator resolves userID's tier and reports whether it carries
// operator-equivalent authority.
func (h *Handlers) requireOperator(ctx context.Context, userID string) (bool, error) {
	tier, err := h.tiers.ResolveTier(ctx, userID)
	if err != nil {
		return false, err
	}
	return tier.AtLeastOperator(), nil
}

// backpressureTracker implements spec.md §7's "falls silent after the
// third occurrence within 60s" rule for repeated errors of the same kind
// to the same user.
type backpressureTracker struct {
	mu     sync.Mutex
	events map[string][]time.Time
}

func newBackpressureTracker() *backpressureTracker {
	return &backpressureTracker{events: map[string][]time.Time{}}
}

// allow records one occurrence of (userID, kind) at now and reports
// whether the caller should still surface it — false from the fourth
// occurrence onward within the trailing 60s window.
func (b *backpressureTracker) allow(userID, kind string, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := userID + ":" + kind
	window := now.Add(-60 * time.Second)
	kept := b.events[key][:0]
	for _, t := range b.events[key] {
		if t.After(window) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	b.events[key] = kept
	return len(kept) <= 3
}
