package trivia

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/model"
)

func TestEvaluateExactMatch(t *testing.T) {
	score, kind := Evaluate("blue", "blue")
	require.Equal(t, 1.0, score)
	require.Equal(t, model.MatchExact, kind)
}

func TestEvaluateCaseInsensitive(t *testing.T) {
	score, kind := Evaluate("Blue", "blue")
	require.Equal(t, 1.0, score)
	require.Equal(t, model.MatchCaseInsensitive, kind)
}

func TestEvaluateAbbreviationExpansion(t *testing.T) {
	score, kind := Evaluate("GTA", "Grand Theft Auto")
	require.Equal(t, 1.0, score)
	require.Equal(t, model.MatchExpansion, kind)
}

func TestEvaluateFuzzyHighRatio(t *testing.T) {
	score, kind := Evaluate("portal2", "portal 2")
	require.Equal(t, 1.0, score)
	require.Equal(t, model.MatchFuzzy, kind)
}

func TestEvaluatePartialCredit(t *testing.T) {
	score, kind := Evaluate("blu", "blue")
	require.Equal(t, 0.5, score)
	require.Equal(t, model.MatchPartial, kind)
}

func TestEvaluateNoMatch(t *testing.T) {
	score, kind := Evaluate("completely unrelated text here", "blue")
	require.Equal(t, 0.0, score)
	require.Equal(t, model.MatchNone, kind)
}
