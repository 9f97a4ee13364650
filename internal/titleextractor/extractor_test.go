package titleextractor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	canonical  string
	confidence float64
	ok         bool
}

func (f fakeValidator) Validate(candidate string) (string, float64, bool) {
	return f.canonical, f.confidence, f.ok
}

func TestDashAfterStripsEpisodeMarker(t *testing.T) {
	name, ok := dashAfter("Certified Zombie Pest Control Specialist - Zombie Army 4 (day7)")
	require.True(t, ok)
	require.Equal(t, "Zombie Army 4", name)
}

func TestExtractReturnsHighConfidenceImmediately(t *testing.T) {
	result := Extract("Certified Zombie Pest Control Specialist - Zombie Army 4 (day7)",
		fakeValidator{canonical: "Zombie Army 4", confidence: 1.0, ok: true})
	require.Equal(t, "Zombie Army 4", result.Name)
	require.GreaterOrEqual(t, result.Confidence, 0.8)
}

func TestExtractRejectsGenericTerm(t *testing.T) {
	result := Extract("Just Chatting - Stream", fakeValidator{ok: false})
	require.Less(t, result.Confidence, 0.8)
}

func TestExtractRejectsConversationalExclamation(t *testing.T) {
	name, ok := dashAfter("Weekly Update - I love you all!")
	if ok {
		require.False(t, passesFilters(name))
	}
}

func TestEqualsSeparatorStrategy(t *testing.T) {
	name, ok := equalsSeparator("First Playthrough = Hollow Knight")
	require.True(t, ok)
	require.Equal(t, "Hollow Knight", name)
}

func TestBeforeDashStripsNoisePrefix(t *testing.T) {
	name, ok := dashBefore("LIVE** Hollow Knight Boss Rush - day 3")
	require.True(t, ok)
	require.Equal(t, "Hollow Knight Boss Rush", name)
}
