package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyGameStatus(t *testing.T) {
	r := Classify("Has Captain Jonesy played Hollow Knight?")
	require.Equal(t, KindGameStatus, r.Kind)
	require.Equal(t, "Hollow Knight", r.Arg)
}

func TestClassifyGameStatusDidVariant(t *testing.T) {
	r := Classify("did jonesy play Celeste")
	require.Equal(t, KindGameStatus, r.Kind)
	require.Equal(t, "Celeste", r.Arg)
}

func TestClassifyRecommendation(t *testing.T) {
	r := Classify("who recommended Outer Wilds?")
	require.Equal(t, KindRecommendation, r.Kind)
	require.Equal(t, "Outer Wilds", r.Arg)
}

func TestClassifyYear(t *testing.T) {
	r := Classify("what games from 2019 has jonesy played")
	require.Equal(t, KindYear, r.Kind)
	require.Equal(t, "2019", r.Arg)
}

func TestClassifyGenre(t *testing.T) {
	r := Classify("what horror games has jonesy played")
	require.Equal(t, KindGenre, r.Kind)
	require.Equal(t, "horror", r.Arg)
}

func TestClassifyStatistical(t *testing.T) {
	r := Classify("what game series has the most playtime")
	require.Equal(t, KindStatistical, r.Kind)
	require.Equal(t, StatMostPlaytime, r.Stat)
}

func TestClassifyStatisticalDistinguishesSubKinds(t *testing.T) {
	cases := []struct {
		text string
		want StatKind
	}{
		{"which game has the most episodes", StatMostEpisodes},
		{"what game took the longest to complete", StatLongestToComplete},
		{"what game has the most hours", StatMostHours},
	}
	for _, c := range cases {
		r := Classify(c.text)
		require.Equal(t, KindStatistical, r.Kind, c.text)
		require.Equal(t, c.want, r.Stat, c.text)
	}
}

func TestClassifyUnknownForConversationalText(t *testing.T) {
	r := Classify("and then someone recommends Portal")
	require.Equal(t, KindUnknown, r.Kind)
}

func TestClassifyTieBreakPrefersGameStatusOverGameDetails(t *testing.T) {
	r := Classify("did jonesy play Portal")
	require.Equal(t, KindGameStatus, r.Kind)
}
