// Package platform declares the narrow interface the core depends on for
// the chat platform gateway. Per spec.md §1, the gateway client itself is
// an out-of-scope external collaborator: this package specifies the shape
// the core needs from it and provides REST-only outbound adapters
// (DiscordGateway, DiscordTierResolver); it has no inbound event client.
package platform

import "context"

// Message is one inbound chat event, normalized from whatever the gateway
// client's native event type is.
type Message struct {
	ID               string
	AuthorID         string
	GuildID          string
	ChannelID        string
	Content          string
	MentionedUserIDs []string
	IsBot            bool
	IsDM             bool
	ReplyToMessageID string
}

// Gateway is everything the core needs to send outbound effects back to
// the chat platform.
type Gateway interface {
	// SendMessage posts text to a channel or, for a DM, to a user. It
	// returns the platform message id of what was sent.
	SendMessage(ctx context.Context, targetID, text string) (messageID string, err error)
	// React adds an emoji reaction to an existing message.
	React(ctx context.Context, messageID, emoji string) error
	// Mute, Kick, and Ban apply moderation auto-actions (spec.md §4.9).
	Mute(ctx context.Context, guildID, userID, reason string) error
	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string) error
}

// Tier is a user's authority level, which governs AI persona selection and
// command permissions (spec.md GLOSSARY).
type Tier string

const (
	TierStreamer Tier = "streamer"
	TierCreator  Tier = "creator"
	TierOperator Tier = "operator"
	TierMember   Tier = "member"
	TierStandard Tier = "standard"
)

// AtLeastOperator reports whether t carries operator-equivalent authority
// (streamer and creator outrank a plain operator in every permission check
// that gates on "operator").
func (t Tier) AtLeastOperator() bool {
	switch t {
	case TierStreamer, TierCreator, TierOperator:
		return true
	default:
		return false
	}
}

// TierResolver maps a platform user id onto their authority tier, derived
// from guild role membership on the gateway side.
type TierResolver interface {
	ResolveTier(ctx context.Context, userID string) (Tier, error)
}
