package model

import "time"

// QueryType drives the TTL assigned to a cache entry (spec.md §4.3).
type QueryType string

const (
	QueryFAQ         QueryType = "faq"
	QueryGaming      QueryType = "gaming_query"
	QueryPersonality QueryType = "personality"
	QueryTrivia      QueryType = "trivia"
	QueryGeneral     QueryType = "general"
)

// CacheEntry is one fingerprinted prompt/response pair.
type CacheEntry struct {
	Fingerprint     string
	NormalizedQuery string
	OriginalPrompt  string
	Response        string
	QueryType       QueryType
	CreatedAt       time.Time
	ExpiresAt       time.Time
	HitCount        int
	LastAccessedAt  time.Time
}

// Expired reports whether the entry is past its TTL as of now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
