// Package titleextractor derives a candidate game name and confidence
// score from a noisy video/stream title (spec.md §4.6).
package titleextractor

import (
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"

	"github.com/jonesy-ops/ash/internal/textsim"
)

// Validator checks a candidate name against the external metadata service
// and reports a canonical name plus confidence (spec.md §4.6's "validated
// against the external metadata service" step). MetadataClient implements
// this.
type Validator interface {
	Validate(candidate string) (canonicalName string, confidence float64, ok bool)
}

// Result is one strategy's candidate name and confidence.
type Result struct {
	Name       string
	Confidence float64
	Strategy   string
}

var genericTerms = map[string]bool{
	"live": true, "stream": true, "streaming": true, "gaming": true,
	"playing": true, "game": true, "gameplay": true, "playthrough": true,
}

var suffixAnnotations = []string{"gameplay", "playthrough", "stream", "let's play", "walkthrough"}
var prefixNoise = []string{"new", "drops", "sponsored", "live"}
var standardPrefixes = []string{"first time playing:", "let's play:", "stream:"}

var conversationalWords = map[string]bool{
	"you": true, "i": true, "me": true, "we": true,
	"love": true, "hate": true, "feel": true, "feeling": true, "excited": true,
}

// episodeMarker matches "(day N)", "(part N)", "[episode N]", or a bare
// "part N" at the head or tail of a string — regexp2 is used here (rather
// than the stdlib regexp package) so the same engine covers both this
// pattern and the lookahead-based prefix/asterisk stripping below.
var episodeMarker = regexp2.MustCompile(`(?i)[\(\[]\s*(day|part|episode)\s*\d+\s*[\)\]]|^\s*part\s*\d+\b|\bpart\s*\d+\s*$`, 0)

// asteriskPrefix strips a noise-word prefix optionally followed by
// asterisks ("LIVE**", "DROPS*"), a construct regexp2's lookahead makes
// easy to anchor precisely.
var asteriskPrefix = regexp2.MustCompile(`(?i)^(new|drops|sponsored|live)\*{0,2}(?=\W|$)`, 0)

// Extract runs the four ordered strategies of spec.md §4.6 and returns the
// first one to clear the 0.8 confidence threshold, else the best overall.
func Extract(title string, validator Validator) Result {
	var best Result
	strategies := []func(string) (string, bool){
		dashAfter,
		dashBefore,
		standardCleanup,
		equalsSeparator,
	}
	names := []string{"dash_after", "dash_before", "standard_cleanup", "equals_separator"}

	for i, strategy := range strategies {
		candidate, ok := strategy(title)
		if !ok {
			continue
		}
		candidate = strings.TrimSpace(candidate)
		if !passesFilters(candidate) {
			continue
		}
		result := score(candidate, names[i], validator)
		if result.Confidence >= 0.8 {
			return result
		}
		if result.Confidence > best.Confidence {
			best = result
		}
	}
	return best
}

func score(candidate, strategy string, validator Validator) Result {
	if validator == nil {
		return Result{Name: candidate, Confidence: 0, Strategy: strategy}
	}
	canonical, conf, ok := validator.Validate(candidate)
	if !ok {
		return Result{Name: candidate, Confidence: 0, Strategy: strategy}
	}
	if strings.EqualFold(candidate, canonical) {
		return Result{Name: canonical, Confidence: 1.0, Strategy: strategy}
	}
	ratio := textsim.MaxRatio(candidate, canonical)
	if conf > ratio {
		ratio = conf
	}
	return Result{Name: canonical, Confidence: ratio, Strategy: strategy}
}

func dashAfter(title string) (string, bool) {
	sep, idx := findSeparator(title)
	if idx < 0 {
		return "", false
	}
	after := strings.TrimSpace(title[idx+len(sep):])
	after = stripEpisodeMarkers(after)
	after = stripSuffixAnnotations(after)
	if isBareEpisodeMarker(after) {
		return "", false
	}
	return after, after != ""
}

func dashBefore(title string) (string, bool) {
	sep, idx := findSeparator(title)
	if idx < 0 {
		return "", false
	}
	before := strings.TrimSpace(title[:idx])
	before = stripPrefixNoise(before)
	return before, before != ""
}

func standardCleanup(title string) (string, bool) {
	lower := strings.ToLower(title)
	cleaned := title
	for _, prefix := range standardPrefixes {
		if strings.HasPrefix(lower, prefix) {
			cleaned = strings.TrimSpace(title[len(prefix):])
			break
		}
	}
	cleaned = stripEpisodeMarkers(cleaned)
	cleaned = stripHashtags(cleaned)
	return strings.TrimSpace(cleaned), cleaned != ""
}

func equalsSeparator(title string) (string, bool) {
	idx := strings.Index(title, "=")
	if idx < 0 {
		return "", false
	}
	after := strings.TrimSpace(title[idx+1:])
	return after, after != ""
}

func findSeparator(title string) (string, int) {
	for _, sep := range []string{" - ", " | "} {
		if idx := strings.Index(title, sep); idx >= 0 {
			return sep, idx
		}
	}
	return "", -1
}

func stripEpisodeMarkers(s string) string {
	out, err := episodeMarker.Replace(s, "", -1, -1)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(out)
}

func isBareEpisodeMarker(s string) bool {
	matched, err := episodeMarker.MatchString(s)
	if err != nil {
		return false
	}
	return matched && strings.TrimSpace(s) != "" && len([]rune(strings.TrimSpace(s))) < 12
}

func stripSuffixAnnotations(s string) string {
	lower := strings.ToLower(s)
	for _, suffix := range suffixAnnotations {
		if strings.HasSuffix(lower, suffix) {
			return strings.TrimSpace(s[:len(s)-len(suffix)])
		}
	}
	return s
}

func stripPrefixNoise(s string) string {
	out, err := asteriskPrefix.Replace(s, "", -1, -1)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(out)
}

func stripHashtags(s string) string {
	if idx := strings.Index(s, "#"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

func passesFilters(candidate string) bool {
	return !isGenericTerm(candidate) && !isConversational(candidate)
}

func isGenericTerm(candidate string) bool {
	lower := strings.ToLower(strings.TrimSpace(candidate))
	if genericTerms[lower] {
		return true
	}
	if len([]rune(candidate)) < 3 {
		return true
	}
	return alnumRatio(candidate) < 0.5
}

func alnumRatio(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	count := 0
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			count++
		}
	}
	return float64(count) / float64(len(runes))
}

func isConversational(candidate string) bool {
	trimmed := strings.TrimSpace(candidate)
	runeLen := len([]rune(trimmed))
	if strings.HasSuffix(trimmed, "!") && runeLen < 25 && strings.Count(trimmed, " ") <= 5 {
		return true
	}
	if strings.HasSuffix(trimmed, "?") && runeLen < 15 {
		return true
	}
	if runeLen < 25 && dominatedByConversationalWords(trimmed) {
		return true
	}
	return false
}

func dominatedByConversationalWords(s string) bool {
	words := strings.Fields(strings.ToLower(s))
	if len(words) == 0 {
		return false
	}
	hits := 0
	for _, w := range words {
		if conversationalWords[strings.Trim(w, ".,!?")] {
			hits++
		}
	}
	return float64(hits)/float64(len(words)) >= 0.5
}
