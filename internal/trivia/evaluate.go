// Package trivia implements the seven-level trivia answer evaluation and
// session-winner determination of spec.md §4.10.
package trivia

import (
	"regexp"
	"strings"

	"github.com/jonesy-ops/ash/internal/model"
	"github.com/jonesy-ops/ash/internal/textsim"
)

// abbreviations maps a known shorthand to its expansion, checked during
// normalized matching (spec.md §4.10 level 3).
var abbreviations = map[string]string{
	"gta": "grand theft auto",
	"b":   "blue",
	"r":   "red",
	"g":   "green",
	"y":   "yellow",
}

var punctuation = regexp.MustCompile(`[^\w\s]`)
var whitespace = regexp.MustCompile(`\s+`)

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctuation.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func expand(s string) string {
	if exp, ok := abbreviations[s]; ok {
		return exp
	}
	return s
}

// Evaluate scores a submitted answer against the correct answer using the
// seven ordered levels of spec.md §4.10. The first level that matches
// wins; later levels are never consulted once an earlier one succeeds.
func Evaluate(submitted, correct string) (float64, model.TriviaMatchKind) {
	if submitted == correct {
		return 1.0, model.MatchExact
	}
	if strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct)) {
		return 1.0, model.MatchCaseInsensitive
	}

	normSubmitted := normalize(submitted)
	normCorrect := normalize(correct)
	if expand(normSubmitted) == expand(normCorrect) {
		return 1.0, model.MatchExpansion
	}

	if len(normSubmitted) == 1 && len(normCorrect) > 0 && normSubmitted[0] == normCorrect[0] {
		return 1.0, model.MatchAbbreviation
	}

	ratio := textsim.Ratio(normSubmitted, normCorrect)
	if ratio >= 0.90 {
		return 1.0, model.MatchFuzzy
	}
	if ratio >= 0.70 {
		return 0.5, model.MatchPartial
	}
	return 0.0, model.MatchNone
}
