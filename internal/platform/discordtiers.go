package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DiscordTierResolver implements TierResolver by reading a guild member's
// roles over the REST API and mapping configured identifiers onto the
// fixed Tier ladder (spec.md GLOSSARY: streamer > creator > operator >
// member > standard).
type DiscordTierResolver struct {
	gateway         *DiscordGateway
	guildID         string
	streamerUserID  string
	creatorUserID   string
	operatorRoleIDs map[string]struct{}
}

// NewDiscordTierResolver constructs a DiscordTierResolver scoped to one guild.
func NewDiscordTierResolver(gateway *DiscordGateway, guildID, streamerUserID, creatorUserID string, operatorRoleIDs []string) *DiscordTierResolver {
	roles := make(map[string]struct{}, len(operatorRoleIDs))
	for _, id := range operatorRoleIDs {
		roles[id] = struct{}{}
	}
	return &DiscordTierResolver{
		gateway:         gateway,
		guildID:         guildID,
		streamerUserID:  streamerUserID,
		creatorUserID:   creatorUserID,
		operatorRoleIDs: roles,
	}
}

// ResolveTier implements TierResolver.
func (r *DiscordTierResolver) ResolveTier(ctx context.Context, userID string) (Tier, error) {
	if userID == r.streamerUserID && userID != "" {
		return TierStreamer, nil
	}
	if userID == r.creatorUserID && userID != "" {
		return TierCreator, nil
	}

	body, err := r.gateway.do(ctx, http.MethodGet, fmt.Sprintf("/guilds/%s/members/%s", r.guildID, userID), nil)
	if err != nil {
		return TierStandard, fmt.Errorf("platform: resolve tier for %s: %w", userID, err)
	}
	var member struct {
		Roles []string `json:"roles"`
	}
	if err := json.Unmarshal(body, &member); err != nil {
		return TierStandard, err
	}
	for _, roleID := range member.Roles {
		if _, ok := r.operatorRoleIDs[roleID]; ok {
			return TierOperator, nil
		}
	}
	return TierMember, nil
}
