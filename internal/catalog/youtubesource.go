package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

const (
	youtubeRequestTimeout = 10 * time.Second
	youtubeBaseURL        = "https://www.googleapis.com/youtube/v3"
)

// YouTubeSource implements VideoSource against the YouTube Data API v3,
// the same plain HTTP-plus-gjson idiom metadata.Client uses for IGDB
// rather than pulling in a generated SDK client.
type YouTubeSource struct {
	httpClient *http.Client
	apiKey     string
	channelID  string
}

// NewYouTubeSource constructs a YouTubeSource scoped to one channel's
// uploaded playlists.
func NewYouTubeSource(apiKey, channelID string) *YouTubeSource {
	return &YouTubeSource{
		httpClient: &http.Client{Timeout: youtubeRequestTimeout},
		apiKey:     apiKey,
		channelID:  channelID,
	}
}

// FetchPlaylists lists every playlist on the configured channel and its
// item durations/view counts (spec.md §4.7's video-source shape).
func (s *YouTubeSource) FetchPlaylists() ([]VideoRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), youtubeRequestTimeout)
	defer cancel()

	playlists, err := s.listPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]VideoRecord, 0, len(playlists))
	for _, p := range playlists {
		items, err := s.listPlaylistItems(ctx, p.id)
		if err != nil {
			return nil, fmt.Errorf("catalog: youtube playlist items %s: %w", p.id, err)
		}
		records = append(records, VideoRecord{PlaylistID: p.id, Title: p.title, Items: items})
	}
	return records, nil
}

type playlistRef struct {
	id    string
	title string
}

func (s *YouTubeSource) listPlaylists(ctx context.Context) ([]playlistRef, error) {
	var refs []playlistRef
	pageToken := ""
	for {
		params := url.Values{
			"part":       {"snippet"},
			"channelId":  {s.channelID},
			"maxResults": {"50"},
			"key":        {s.apiKey},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		body, err := s.get(ctx, "/playlists", params)
		if err != nil {
			return nil, err
		}
		for _, item := range gjson.GetBytes(body, "items").Array() {
			refs = append(refs, playlistRef{
				id:    item.Get("id").String(),
				title: item.Get("snippet.title").String(),
			})
		}
		pageToken = gjson.GetBytes(body, "nextPageToken").String()
		if pageToken == "" {
			break
		}
	}
	return refs, nil
}

func (s *YouTubeSource) listPlaylistItems(ctx context.Context, playlistID string) ([]VideoItem, error) {
	var videoIDs []string
	pageToken := ""
	for {
		params := url.Values{
			"part":       {"contentDetails"},
			"playlistId": {playlistID},
			"maxResults": {"50"},
			"key":        {s.apiKey},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		body, err := s.get(ctx, "/playlistItems", params)
		if err != nil {
			return nil, err
		}
		for _, item := range gjson.GetBytes(body, "items").Array() {
			videoIDs = append(videoIDs, item.Get("contentDetails.videoId").String())
		}
		pageToken = gjson.GetBytes(body, "nextPageToken").String()
		if pageToken == "" {
			break
		}
	}
	if len(videoIDs) == 0 {
		return nil, nil
	}
	return s.videoDetails(ctx, videoIDs)
}

func (s *YouTubeSource) videoDetails(ctx context.Context, videoIDs []string) ([]VideoItem, error) {
	items := make([]VideoItem, 0, len(videoIDs))
	// YouTube's videos.list accepts up to 50 comma-joined ids per call.
	for start := 0; start < len(videoIDs); start += 50 {
		end := start + 50
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		ids := joinIDs(videoIDs[start:end])
		params := url.Values{
			"part": {"contentDetails,statistics"},
			"id":   {ids},
			"key":  {s.apiKey},
		}
		body, err := s.get(ctx, "/videos", params)
		if err != nil {
			return nil, err
		}
		for _, item := range gjson.GetBytes(body, "items").Array() {
			items = append(items, VideoItem{
				DurationSeconds: parseISODurationSeconds(item.Get("contentDetails.duration").String()),
				Views:           int(item.Get("statistics.viewCount").Int()),
			})
		}
	}
	return items, nil
}

func (s *YouTubeSource) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, youtubeBaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog: youtube %s: status %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func joinIDs(ids []string) string {
	out := ids[0]
	for _, id := range ids[1:] {
		out += "," + id
	}
	return out
}

// parseISODurationSeconds parses the subset of ISO-8601 durations YouTube
// returns (PT#H#M#S) into whole seconds; an unparsable value yields 0
// rather than failing the whole sync.
func parseISODurationSeconds(iso string) int {
	if len(iso) < 2 || iso[0] != 'P' {
		return 0
	}
	var hours, minutes, seconds int
	var num int
	inTime := false
	for i := 1; i < len(iso); i++ {
		c := iso[i]
		switch {
		case c == 'T':
			inTime = true
		case c >= '0' && c <= '9':
			num = num*10 + int(c-'0')
		case c == 'H' && inTime:
			hours, num = num, 0
		case c == 'M' && inTime:
			minutes, num = num, 0
		case c == 'S' && inTime:
			seconds, num = num, 0
		default:
			num = 0
		}
	}
	return hours*3600 + minutes*60 + seconds
}
