// Package query implements QueryClassifier: mapping natural-language text
// onto a tagged variant of recognized catalog-question kinds (spec.md
// §4.2, §9's "polymorphism via variant" design note).
package query

import "regexp"

// Kind is the tag of a classified query.
type Kind string

const (
	KindStatistical    Kind = "statistical"
	KindGenre          Kind = "genre"
	KindYear           Kind = "year"
	KindGameStatus     Kind = "game_status"
	KindGameDetails    Kind = "game_details"
	KindRecommendation Kind = "recommendation"
	KindYouTubeViews   Kind = "youtube_views"
	KindUnknown        Kind = "unknown"
)

// StatKind discriminates which of spec.md §4.2's four statistical
// phrasings a KindStatistical query asked.
type StatKind string

const (
	StatMostPlaytime      StatKind = "most_playtime"
	StatMostEpisodes      StatKind = "most_episodes"
	StatLongestToComplete StatKind = "longest_to_complete"
	StatMostHours         StatKind = "most_hours"
)

// Result is the classifier's tagged-variant output: Kind plus the single
// argument the matching pattern's first capture group extracted (empty
// for KindUnknown), and Stat when Kind is KindStatistical.
type Result struct {
	Kind Kind
	Arg  string
	Stat StatKind
}

type rule struct {
	kind    Kind
	pattern *regexp.Regexp
	stat    StatKind
}

// rules is evaluated in declaration order and the first matching rule
// wins. The anchored game-status and recommendation patterns come first,
// but anchoring does not otherwise decide precedence: the unanchored year,
// genre and statistical patterns precede the anchored YouTube-views and
// game-details ones, and the unanchored YouTube-views pattern precedes the
// anchored one.
var rules = []rule{
	{kind: KindGameStatus, pattern: regexp.MustCompile(`(?i)^has (?:captain )?jonesy played (.+?)\??$`)},
	{kind: KindGameStatus, pattern: regexp.MustCompile(`(?i)^did (?:captain )?jonesy play (.+?)\??$`)},
	{kind: KindRecommendation, pattern: regexp.MustCompile(`(?i)^is (.+?) recommended\??$`)},
	{kind: KindRecommendation, pattern: regexp.MustCompile(`(?i)^who recommended (.+?)\??$`)},
	{kind: KindYear, pattern: regexp.MustCompile(`(?i)what games from (\d{4}) has jonesy played`)},
	{kind: KindGenre, pattern: regexp.MustCompile(`(?i)what (\w+) games has jonesy played`)},
	{kind: KindStatistical, pattern: regexp.MustCompile(`(?i)^what game (?:series )?.*most playtime`), stat: StatMostPlaytime},
	{kind: KindStatistical, pattern: regexp.MustCompile(`(?i)which game .*most episodes`), stat: StatMostEpisodes},
	{kind: KindStatistical, pattern: regexp.MustCompile(`(?i)what .*longest .*complete`), stat: StatLongestToComplete},
	{kind: KindStatistical, pattern: regexp.MustCompile(`(?i)what .*most hours`), stat: StatMostHours},
	{kind: KindYouTubeViews, pattern: regexp.MustCompile(`(?i)how many views (?:does|did) (.+?) (?:have|get)\??$`)},
	{kind: KindYouTubeViews, pattern: regexp.MustCompile(`(?i)^what(?:'s| is) the most (?:viewed|watched) (?:video|episode)\??$`)},
	{kind: KindGameDetails, pattern: regexp.MustCompile(`(?i)^(?:what|tell me) (?:is|about) (.+?)\??$`)},
	{kind: KindGameDetails, pattern: regexp.MustCompile(`(?i)^what genre is (.+?)\??$`)},
}

// Classify maps text onto its Result. Rules are evaluated in declaration
// order; the first match wins, and its first capture group (if any)
// becomes Arg.
func Classify(text string) Result {
	for _, r := range rules {
		if m := r.pattern.FindStringSubmatch(text); m != nil {
			arg := ""
			if len(m) > 1 {
				arg = m[len(m)-1]
			}
			return Result{Kind: r.kind, Arg: arg, Stat: r.stat}
		}
	}
	return Result{Kind: KindUnknown}
}
