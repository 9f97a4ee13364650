// Package aicache implements the fingerprinted, TTL-bucketed, fuzzy-matched
// prompt->response cache of spec.md §4.3.
package aicache

import (
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/textsim"
)

// ttlByQueryType is the TTL table from spec.md §4.3.
var ttlByQueryType = map[model.QueryType]time.Duration{
	model.QueryFAQ:         24 * time.Hour,
	model.QueryGaming:      6 * time.Hour,
	model.QueryPersonality: 12 * time.Hour,
	model.QueryTrivia:      7 * 24 * time.Hour,
	model.QueryGeneral:     3 * time.Hour,
}

var fillerWords = []string{"please", "can you", "could you", "would you"}

// detectionPatterns auto-detects a query's type from its text when the
// caller doesn't specify one explicitly.
var detectionPatterns = []struct {
	pattern *regexp.Regexp
	qt      model.QueryType
}{
	{regexp.MustCompile(`(?i)^(who|what|how|where|when) (is|are|am|do|does|did)`), model.QueryFAQ},
	{regexp.MustCompile(`(?i)(game|play|episode|hour|complete|finish|series|genre|youtube|twitch|view|stream)`), model.QueryGaming},
}

// Stats are the statistics spec.md §4.3 requires the cache to expose.
type Stats struct {
	Hits          int
	Misses        int
	TotalQueries  int
	CacheSize     int
	APICallsSaved int
}

// HitRate returns Hits / TotalQueries, or 0 when no queries have been made.
func (s Stats) HitRate() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.TotalQueries)
}

const (
	similarityThreshold = 0.85
	sweepSizeThreshold  = 500
	sweepEveryNEntries  = 50
	similaritySampleCap = 1000
)

// Cache is the AIResponseCache. All operations hold a single mutex; sweeps
// run synchronously under it, and the mutex is never held across a
// suspension point (spec.md §4.3, §5).
type Cache struct {
	mu      sync.Mutex
	entries map[string]*model.CacheEntry
	hits    int
	misses  int
	now     func() time.Time

	group singleflight.Group
}

// New constructs an empty Cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*model.CacheEntry),
		now:     time.Now,
	}
}

// NormalizeQuery lowercases, collapses whitespace, strips trailing
// terminal punctuation, and removes filler words, per spec.md §4.3.
func NormalizeQuery(query string) string {
	normalized := strings.ToLower(query)
	normalized = strings.Join(strings.Fields(normalized), " ")
	normalized = strings.TrimRight(normalized, "?.!,")
	for _, filler := range fillerWords {
		normalized = strings.ReplaceAll(normalized, filler, "")
	}
	normalized = strings.Join(strings.Fields(normalized), " ")
	return normalized
}

// Fingerprint hashes the normalized form of query.
func Fingerprint(query string) string {
	sum := sha256.Sum256([]byte(NormalizeQuery(query)))
	return hex.EncodeToString(sum[:])
}

// DetectQueryType infers a QueryType from the prompt text when the caller
// doesn't specify one.
func DetectQueryType(prompt string) model.QueryType {
	for _, p := range detectionPatterns {
		if p.pattern.MatchString(prompt) {
			return p.qt
		}
	}
	return model.QueryGeneral
}

// Lookup returns a cached response for prompt, trying an exact fingerprint
// match first and a fuzzy similarity match second.
func (c *Cache) Lookup(prompt string) (*model.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	normalized := NormalizeQuery(prompt)
	fp := Fingerprint(prompt)

	if e, ok := c.entries[fp]; ok && !e.Expired(now) {
		e.HitCount++
		e.LastAccessedAt = now
		c.hits++
		return e, true
	}

	if candidate := c.fuzzyLookupLocked(normalized, now); candidate != nil {
		candidate.HitCount++
		candidate.LastAccessedAt = now
		c.hits++
		return candidate, true
	}

	c.misses++
	return nil, false
}

// fuzzyLookupLocked must be called with c.mu held.
func (c *Cache) fuzzyLookupLocked(normalized string, now time.Time) *model.CacheEntry {
	candidates := c.liveEntriesLocked(now)
	if len(candidates) > similaritySampleCap {
		candidates = sampleEntries(candidates, similaritySampleCap)
	}
	var best *model.CacheEntry
	bestRatio := 0.0
	for _, e := range candidates {
		ratio := textsim.Ratio(normalized, e.NormalizedQuery)
		if ratio >= similarityThreshold && ratio > bestRatio {
			best = e
			bestRatio = ratio
		}
	}
	return best
}

func (c *Cache) liveEntriesLocked(now time.Time) []*model.CacheEntry {
	out := make([]*model.CacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		if !e.Expired(now) {
			out = append(out, e)
		}
	}
	return out
}

func sampleEntries(entries []*model.CacheEntry, n int) []*model.CacheEntry {
	idx := rand.Perm(len(entries))[:n]
	out := make([]*model.CacheEntry, n)
	for i, j := range idx {
		out[i] = entries[j]
	}
	return out
}

// Set writes a response into the cache. If the cache exceeds 500 entries
// and that size is a multiple of 50, expired entries are swept first, per
// spec.md §4.3.
func (c *Cache) Set(prompt, response string, queryType model.QueryType) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) > sweepSizeThreshold && len(c.entries)%sweepEveryNEntries == 0 {
		c.sweepLocked(c.now())
	}

	now := c.now()
	if queryType == "" {
		queryType = DetectQueryType(prompt)
	}
	ttl, ok := ttlByQueryType[queryType]
	if !ok {
		ttl = ttlByQueryType[model.QueryGeneral]
	}
	fp := Fingerprint(prompt)
	c.entries[fp] = &model.CacheEntry{
		Fingerprint:     fp,
		NormalizedQuery: NormalizeQuery(prompt),
		OriginalPrompt:  prompt,
		Response:        response,
		QueryType:       queryType,
		CreatedAt:       now,
		ExpiresAt:       now.Add(ttl),
		LastAccessedAt:  now,
	}
}

// Sweep purges all expired entries. Exposed for the Scheduler's hourly
// cache sweep (spec.md §4.8).
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(c.now())
}

func (c *Cache) sweepLocked(now time.Time) int {
	removed := 0
	for k, e := range c.entries {
		if e.Expired(now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of the cache's statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	return Stats{
		Hits:          c.hits,
		Misses:        c.misses,
		TotalQueries:  total,
		CacheSize:     len(c.entries),
		APICallsSaved: c.hits,
	}
}

// GetOrCompute looks up prompt in the cache; on miss it coalesces
// concurrent identical misses into a single call to compute via
// singleflight, then writes the result into the cache under queryType.
// The cache mutex is released before compute runs, per the no-suspension-
// under-lock rule in spec.md §5.
func (c *Cache) GetOrCompute(prompt string, queryType model.QueryType, compute func() (string, error)) (string, bool, error) {
	if entry, ok := c.Lookup(prompt); ok {
		return entry.Response, true, nil
	}
	fp := Fingerprint(prompt)
	v, err, _ := c.group.Do(fp, func() (any, error) {
		// Re-check after winning the singleflight race — another caller
		// may have populated the cache while we waited.
		if entry, ok := c.Lookup(prompt); ok {
			return entry.Response, nil
		}
		resp, err := compute()
		if err != nil {
			return "", err
		}
		c.Set(prompt, resp, queryType)
		return resp, nil
	})
	if err != nil {
		return "", false, err
	}
	return v.(string), false, nil
}
