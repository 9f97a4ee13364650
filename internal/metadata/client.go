// Package metadata implements the external game-metadata lookup the
// TitleExtractor and CatalogIngestor validate candidates against: IGDB
// (Twitch's game database) as primary, falling back to Twitch's own
// client-credentials grant when IGDB-specific credentials are absent, per
// spec.md §6's environment-variable fallback chain.
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/jonesy-ops/ash/internal/textsim"
)

const requestTimeout = 10 * time.Second

// Credentials holds the OAuth2 client-credentials pair used against IGDB,
// falling back to the bare Twitch pair when IGDB-specific values are unset
// (spec.md §6: IGDB_CLIENT_ID falls back to TWITCH_CLIENT_ID, etc.).
type Credentials struct {
	IGDBClientID       string
	IGDBClientSecret   string
	TwitchClientID     string
	TwitchClientSecret string
}

// Resolve applies the IGDB -> Twitch fallback chain.
func (c Credentials) Resolve() (clientID, clientSecret string, ok bool) {
	clientID = c.IGDBClientID
	if clientID == "" {
		clientID = c.TwitchClientID
	}
	clientSecret = c.IGDBClientSecret
	if clientSecret == "" {
		clientSecret = c.TwitchClientSecret
	}
	return clientID, clientSecret, clientID != "" && clientSecret != ""
}

const (
	igdbTokenURL = "https://id.twitch.tv/oauth2/token"
	igdbBaseURL  = "https://api.igdb.com/v4"
)

// entry is one cached lookup result, reusing the same TTL-bucketed shape
// AIResponseCache uses but keyed by candidate name rather than prompt
// fingerprint — a separate, smaller cache per spec.md's design notes (a
// metadata lookup is not an AI prompt and should not share that budget).
type entry struct {
	externalID       int64
	canonicalName    string
	alternativeNames []string
	confidence       float64
	expiresAt        time.Time
}

const cacheTTL = 24 * time.Hour

// Client looks up canonical game names and alternative-name lists from
// IGDB, with an HTML scrape fallback for stream-archive pages that don't
// carry structured metadata.
type Client struct {
	httpClient *http.Client
	oauth      *clientcredentials.Config
	baseURL    string

	mu    sync.Mutex
	cache map[string]entry
}

// New constructs a Client from creds. It returns an error if neither the
// IGDB nor Twitch credential pair is present.
func New(creds Credentials) (*Client, error) {
	clientID, clientSecret, ok := creds.Resolve()
	if !ok {
		return nil, fmt.Errorf("metadata: no IGDB or Twitch credentials configured")
	}
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		oauth: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     igdbTokenURL,
		},
		baseURL: igdbBaseURL,
		cache:   make(map[string]entry),
	}, nil
}

// Validate implements titleextractor.Validator: it looks candidate up
// against IGDB and reports the canonical name and a similarity-based
// confidence.
func (c *Client) Validate(candidate string) (string, float64, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	result, err := c.Lookup(ctx, candidate)
	if err != nil || result == nil {
		return "", 0, false
	}
	if strings.EqualFold(candidate, result.CanonicalName) {
		return result.CanonicalName, 1.0, true
	}
	return result.CanonicalName, textsim.MaxRatio(candidate, result.CanonicalName), true
}

// Result is one metadata lookup's canonical identity.
type Result struct {
	ExternalID       int64
	CanonicalName    string
	AlternativeNames []string
}

// Lookup resolves candidate to a canonical name and alternative-name list,
// consulting the local cache before calling IGDB.
func (c *Client) Lookup(ctx context.Context, candidate string) (*Result, error) {
	key := strings.ToLower(strings.TrimSpace(candidate))
	if key == "" {
		return nil, fmt.Errorf("metadata: empty candidate name")
	}

	c.mu.Lock()
	if cached, ok := c.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		c.mu.Unlock()
		return &Result{ExternalID: cached.externalID, CanonicalName: cached.canonicalName, AlternativeNames: cached.alternativeNames}, nil
	}
	c.mu.Unlock()

	body, err := c.queryIGDB(ctx, candidate)
	if err != nil {
		return nil, err
	}

	games := gjson.ParseBytes(body).Array()
	if len(games) == 0 {
		return nil, nil
	}
	first := games[0]
	result := &Result{
		ExternalID:       first.Get("id").Int(),
		CanonicalName:    first.Get("name").String(),
		AlternativeNames: altNamesFrom(first),
	}

	c.mu.Lock()
	c.cache[key] = entry{
		externalID:       result.ExternalID,
		canonicalName:    result.CanonicalName,
		alternativeNames: result.AlternativeNames,
		expiresAt:        time.Now().Add(cacheTTL),
	}
	c.mu.Unlock()

	return result, nil
}

func altNamesFrom(game gjson.Result) []string {
	var names []string
	for _, n := range game.Get("alternative_names.#.name").Array() {
		if s := n.String(); s != "" {
			names = append(names, s)
		}
	}
	return names
}

func (c *Client) queryIGDB(ctx context.Context, candidate string) ([]byte, error) {
	token, err := c.oauth.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("metadata: oauth token: %w", err)
	}

	query := fmt.Sprintf(`search "%s"; fields id,name,alternative_names.name; limit 5;`, escapeAPIQL(candidate))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/games", strings.NewReader(query))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-ID", c.oauth.ClientID)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata: igdb request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata: igdb returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func escapeAPIQL(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// ScrapeTitle is the HTML-scrape fallback used when a stream-archive page
// has no structured metadata (e.g. a delisted video whose title the video
// service no longer returns via its API).
func ScrapeTitle(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("metadata: scrape request: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("metadata: parse html: %w", err)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("meta[property='og:title']").AttrOr("content", ""))
	}
	if title == "" {
		return "", fmt.Errorf("metadata: no title found at %s", pageURL)
	}
	return title, nil
}
