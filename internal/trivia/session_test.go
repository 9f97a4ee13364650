package trivia

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonesy-ops/ash/internal/model"
)

func TestWinnerIsEarliestOrdinalAmongFullScores(t *testing.T) {
	answers := []*model.TriviaAnswer{
		{UserID: "a", Score: 1.0, Ordinal: 1},
		{UserID: "b", Score: 1.0, Ordinal: 2},
		{UserID: "c", Score: 0.0, Ordinal: 0},
	}
	w := Winner(answers)
	require.NotNil(t, w)
	require.Equal(t, "a", w.UserID)
}

func TestWinnerNilWhenNoFullScore(t *testing.T) {
	answers := []*model.TriviaAnswer{
		{UserID: "a", Score: 0.5, Ordinal: 1},
		{UserID: "b", Score: 0.0, Ordinal: 2},
	}
	require.Nil(t, Winner(answers))
}
