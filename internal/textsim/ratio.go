// Package textsim implements the character-sequence similarity ratio used
// throughout the core (AIResponseCache fuzzy lookup, TitleExtractor
// confidence scoring, CatalogIngestor dedup sweep, trivia answer
// evaluation) — spec.md's repeated references to "character-sequence
// ratio" all mean this one algorithm, a Ratcliff/Obershelp-style longest-
// common-substring ratio equivalent to Python's difflib.SequenceMatcher
// that the original implementation used.
package textsim

// Ratio returns a similarity score in [0, 1] between a and b, computed as
// 2*M / (len(a)+len(b)) where M is the total length of matching blocks
// found by recursively taking the longest common substring.
func Ratio(a, b string) float64 {
	if a == b {
		if a == "" {
			return 1
		}
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	matches := matchLength(ra, rb)
	return 2 * float64(matches) / float64(len(ra)+len(rb))
}

func matchLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchLength(a[:i], b[:j])
	total += matchLength(a[i+size:], b[j+size:])
	return total
}

// longestCommonSubstring returns the start index in a, start index in b,
// and length of the longest common contiguous run between a and b.
func longestCommonSubstring(a, b []rune) (int, int, int) {
	// Dynamic-programming table sized to the shorter string's row to keep
	// this O(len(a)*len(b)) in time and O(min(len(a),len(b))) in space.
	if len(a) > len(b) {
		j, i, size := longestCommonSubstring(b, a)
		return i, j, size
	}
	prev := make([]int, len(a)+1)
	cur := make([]int, len(a)+1)
	bestLen, bestI, bestJ := 0, 0, 0
	for j := 1; j <= len(b); j++ {
		for i := 1; i <= len(a); i++ {
			if a[i-1] == b[j-1] {
				cur[i] = prev[i-1] + 1
				if cur[i] > bestLen {
					bestLen = cur[i]
					bestI = i - bestLen
					bestJ = j - bestLen
				}
			} else {
				cur[i] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestI, bestJ, bestLen
}

// WordOverlapRatio scores similarity by overlapping word sets, used where
// spec.md §4.6 says "word-overlap taking the max for multi-word names".
func WordOverlapRatio(a, b string) float64 {
	wa := splitWords(a)
	wb := splitWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	setB := make(map[string]bool, len(wb))
	for _, w := range wb {
		setB[w] = true
	}
	overlap := 0
	for _, w := range wa {
		if setB[w] {
			overlap++
		}
	}
	denom := len(wa)
	if len(wb) > denom {
		denom = len(wb)
	}
	return float64(overlap) / float64(denom)
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			if len(cur) > 0 {
				words = append(words, string(cur))
				cur = nil
			}
			continue
		}
		cur = append(cur, toLowerRune(r))
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}

func toLowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// MaxRatio returns the greater of the character-sequence ratio and the
// word-overlap ratio between a and b.
func MaxRatio(a, b string) float64 {
	seq := Ratio(normalizeCase(a), normalizeCase(b))
	word := WordOverlapRatio(a, b)
	if word > seq {
		return word
	}
	return seq
}

func normalizeCase(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, toLowerRune(r))
	}
	return string(out)
}
