// Package model defines the catalog, moderation, reminder, and trivia
// records shared by every component of the core.
package model

import "time"

// CompletionStatus is the playthrough state of a catalog entry.
type CompletionStatus string

const (
	CompletionUnknown    CompletionStatus = "unknown"
	CompletionInProgress CompletionStatus = "in_progress"
	CompletionCompleted  CompletionStatus = "completed"
	CompletionDropped    CompletionStatus = "dropped"
)

// Valid reports whether s is one of the enumerated completion states.
func (s CompletionStatus) Valid() bool {
	switch s {
	case CompletionUnknown, CompletionInProgress, CompletionCompleted, CompletionDropped:
		return true
	default:
		return false
	}
}

// Game is the canonical catalog entry for something the streamer has played.
type Game struct {
	ID                string
	CanonicalName     string
	AlternativeNames  []string
	Series            string
	Genre             string
	ReleaseYear       int
	CompletionStatus  CompletionStatus
	TotalEpisodes     int
	TotalPlaytimeMins int
	ExternalID        *int64
	Confidence        float64
	LastValidatedAt   time.Time
	PlaylistURL       string
	StreamURLs        []string
	FirstPlayedAt     time.Time
}

// RequiresExternalID reports whether g's confidence obligates it to carry an
// external metadata identifier (spec.md §3 invariant).
func (g *Game) RequiresExternalID() bool {
	return g.Confidence >= 0.8
}

// Valid checks the structural invariants of spec.md §3.
func (g *Game) Valid() error {
	if g.CanonicalName == "" {
		return errInvalid("canonical name must not be empty")
	}
	if g.RequiresExternalID() && g.ExternalID == nil {
		return errInvalid("confidence >= 0.8 requires an external metadata id")
	}
	if !g.CompletionStatus.Valid() {
		return errInvalid("invalid completion status")
	}
	if g.TotalEpisodes < 0 || g.TotalPlaytimeMins < 0 {
		return errInvalid("episode count and playtime must be nonnegative")
	}
	if len(g.AlternativeNames) > 5 {
		return errInvalid("alternative names capped at 5")
	}
	for _, n := range g.AlternativeNames {
		if containsNonLatin(n) {
			return errInvalid("alternative names must be Latin-script")
		}
	}
	return nil
}

type validationError string

func (e validationError) Error() string { return string(e) }

func errInvalid(msg string) error { return validationError(msg) }

// containsNonLatin reports whether s contains a rune with a code point
// >= 0x250, which spec.md §6 uses as the Latin-Extended-A boundary for
// alternative-name storage.
func containsNonLatin(s string) bool {
	for _, r := range s {
		if r >= 0x250 {
			return true
		}
	}
	return false
}
