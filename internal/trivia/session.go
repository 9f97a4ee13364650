package trivia

import "github.com/jonesy-ops/ash/internal/model"

// Winner returns the answer that should be credited as the session winner:
// the earliest-ordinal answer among those scoring 1.0 (spec.md §4.10, §8
// invariant "exactly one answer has ordinal = min among score = 1.0
// answers"). It returns nil if no answer scored a full 1.0, in which case
// the session completes with no winner.
func Winner(answers []*model.TriviaAnswer) *model.TriviaAnswer {
	var best *model.TriviaAnswer
	for _, a := range answers {
		if a.Score != 1.0 {
			continue
		}
		if best == nil || a.Ordinal < best.Ordinal {
			best = a
		}
	}
	return best
}
