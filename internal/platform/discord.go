package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	discordRequestTimeout = 10 * time.Second
	discordAPIBaseURL     = "https://discord.com/api/v10"
)

// DiscordGateway implements Gateway over Discord's REST API. It covers
// every outbound effect the core issues (send, react, mute/kick/ban);
// receiving inbound events is the Gateway websocket driver's job, supplied
// by the runtime that constructs the Router — see this package's doc
// comment.
type DiscordGateway struct {
	httpClient *http.Client
	botToken   string
}

// NewDiscordGateway constructs a DiscordGateway authenticated with botToken
// (the DISCORD_TOKEN environment variable).
func NewDiscordGateway(botToken string) *DiscordGateway {
	return &DiscordGateway{
		httpClient: &http.Client{Timeout: discordRequestTimeout},
		botToken:   botToken,
	}
}

func (g *DiscordGateway) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = strings.NewReader(string(encoded))
	}
	req, err := http.NewRequestWithContext(ctx, method, discordAPIBaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bot "+g.botToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("platform: discord %s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// discordUnknownChannelCode is the Discord API error code returned when a
// message post targets an id that isn't a channel — the signal this
// package uses to retry targetID as a user id needing a DM channel opened
// first (channel and user snowflakes are otherwise indistinguishable).
const discordUnknownChannelCode = 10003

// SendMessage implements Gateway. targetID is tried as a channel id first;
// on Discord's "unknown channel" error it's retried as a user id with a DM
// channel opened on demand, covering both of Handlers.reply's cases
// without requiring the caller to pre-resolve DM channel ids.
func (g *DiscordGateway) SendMessage(ctx context.Context, targetID, text string) (string, error) {
	msgID, err := g.postMessage(ctx, targetID, text)
	if err == nil {
		return msgID, nil
	}
	if !isDiscordErrorCode(err, discordUnknownChannelCode) {
		return "", err
	}

	dm, dmErr := g.do(ctx, http.MethodPost, "/users/@me/channels", map[string]string{"recipient_id": targetID})
	if dmErr != nil {
		return "", fmt.Errorf("platform: open dm channel for %s: %w", targetID, dmErr)
	}
	var channel struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(dm, &channel); err != nil {
		return "", err
	}
	return g.postMessage(ctx, channel.ID, text)
}

func (g *DiscordGateway) postMessage(ctx context.Context, channelID, text string) (string, error) {
	resp, err := g.do(ctx, http.MethodPost, fmt.Sprintf("/channels/%s/messages", channelID), map[string]string{"content": text})
	if err != nil {
		return "", err
	}
	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return "", err
	}
	return parsed.ID, nil
}

// isDiscordErrorCode reports whether err, as produced by (*DiscordGateway).do,
// carries Discord's JSON error body with the given numeric code.
func isDiscordErrorCode(err error, code int) bool {
	var body struct {
		Code int `json:"code"`
	}
	msg := err.Error()
	idx := strings.Index(msg, "{")
	if idx < 0 {
		return false
	}
	if jsonErr := json.Unmarshal([]byte(msg[idx:]), &body); jsonErr != nil {
		return false
	}
	return body.Code == code
}

// React implements Gateway. messageID must be "channelID:messageID" —
// Discord's reaction endpoint is scoped to a channel, which the core
// doesn't otherwise track per message.
func (g *DiscordGateway) React(ctx context.Context, messageID, emoji string) error {
	channelID, msgID, ok := strings.Cut(messageID, ":")
	if !ok {
		return fmt.Errorf("platform: react: messageID %q missing channel prefix", messageID)
	}
	path := fmt.Sprintf("/channels/%s/messages/%s/reactions/%s/@me", channelID, msgID, url.PathEscape(emoji))
	_, err := g.do(ctx, http.MethodPut, path, nil)
	return err
}

// Mute implements Gateway via Discord's timeout field (communication_disabled_until).
func (g *DiscordGateway) Mute(ctx context.Context, guildID, userID, reason string) error {
	until := time.Now().Add(10 * time.Minute).UTC().Format(time.RFC3339)
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, userID)
	_, err := g.do(ctx, http.MethodPatch, path, map[string]string{
		"communication_disabled_until": until,
	})
	if err != nil {
		return fmt.Errorf("platform: mute %s in %s (%s): %w", userID, guildID, reason, err)
	}
	return nil
}

// Kick implements Gateway.
func (g *DiscordGateway) Kick(ctx context.Context, guildID, userID, reason string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, userID)
	_, err := g.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return fmt.Errorf("platform: kick %s from %s (%s): %w", userID, guildID, reason, err)
	}
	return nil
}

// Ban implements Gateway.
func (g *DiscordGateway) Ban(ctx context.Context, guildID, userID, reason string) error {
	path := fmt.Sprintf("/guilds/%s/bans/%s", guildID, userID)
	_, err := g.do(ctx, http.MethodPut, path, map[string]string{"reason": reason})
	if err != nil {
		return fmt.Errorf("platform: ban %s from %s (%s): %w", userID, guildID, reason, err)
	}
	return nil
}
