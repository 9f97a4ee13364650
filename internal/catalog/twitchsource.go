package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const (
	twitchRequestTimeout = 10 * time.Second
	twitchTokenURL       = "https://id.twitch.tv/oauth2/token"
	twitchHelixBaseURL   = "https://api.twitch.tv/helix"
)

// TwitchSource implements StreamSource against the Twitch Helix videos
// endpoint, reusing the client-credentials flow metadata.Client uses
// against IGDB (both are Twitch-family OAuth2 grants).
type TwitchSource struct {
	httpClient *http.Client
	oauth      *clientcredentials.Config
	clientID   string
	userID     string
}

// NewTwitchSource constructs a TwitchSource scoped to one broadcaster's
// archived videos.
func NewTwitchSource(clientID, clientSecret, userID string) *TwitchSource {
	return &TwitchSource{
		httpClient: &http.Client{Timeout: twitchRequestTimeout},
		oauth: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     twitchTokenURL,
		},
		clientID: clientID,
		userID:   userID,
	}
}

type twitchVideo struct {
	Title     string `json:"title"`
	Duration  string `json:"duration"`
	ViewCount int    `json:"view_count"`
	URL       string `json:"url"`
}

type twitchVideosResponse struct {
	Data []twitchVideo `json:"data"`
}

// FetchStreams lists the broadcaster's archived videos (spec.md §4.7's
// stream-source shape). Twitch's Helix API doesn't expose a per-game-name
// classification on archived videos, so GameID/GameName are left unset —
// identity resolution falls through to Identity.Lookup for these records.
func (s *TwitchSource) FetchStreams() ([]StreamRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), twitchRequestTimeout)
	defer cancel()

	client := s.oauth.Client(ctx)
	params := url.Values{
		"user_id": {s.userID},
		"type":    {"archive"},
		"first":   {"100"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, twitchHelixBaseURL+"/videos?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-Id", s.clientID)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: twitch videos: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog: twitch videos: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var parsed twitchVideosResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("catalog: twitch videos: decode: %w", err)
	}

	records := make([]StreamRecord, 0, len(parsed.Data))
	for _, v := range parsed.Data {
		records = append(records, StreamRecord{
			Title:           v.Title,
			DurationSeconds: parseTwitchDurationSeconds(v.Duration),
			Views:           v.ViewCount,
			ArchiveURL:      v.URL,
		})
	}
	return records, nil
}

// parseTwitchDurationSeconds parses Twitch's compact "1h2m3s" video
// duration format into whole seconds.
func parseTwitchDurationSeconds(d string) int {
	var hours, minutes, seconds, num int
	for _, c := range d {
		switch {
		case c >= '0' && c <= '9':
			num = num*10 + int(c-'0')
		case c == 'h':
			hours, num = num, 0
		case c == 'm':
			minutes, num = num, 0
		case c == 's':
			seconds, num = num, 0
		default:
			num = 0
		}
	}
	return hours*3600 + minutes*60 + seconds
}
