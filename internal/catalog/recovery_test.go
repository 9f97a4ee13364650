package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecoverLegacyAlternativeNamesQuotedRuns(t *testing.T) {
	got := RecoverLegacyAlternativeNames(`{"Zombie Army 4","ZA4","\x"}`)
	require.Equal(t, []string{"Zombie Army 4", "ZA4"}, got)
}

func TestRecoverLegacyAlternativeNamesBareCommaList(t *testing.T) {
	got := RecoverLegacyAlternativeNames(`{Hollow Knight,HK,a}`)
	require.Equal(t, []string{"Hollow Knight", "HK"}, got)
}

func TestRecoverLegacyAlternativeNamesDedupAndCap(t *testing.T) {
	got := RecoverLegacyAlternativeNames(`{"One","one","Two","Three","Four","Five","Six"}`)
	require.Len(t, got, 5)
	require.Equal(t, []string{"One", "Two", "Three", "Four", "Five"}, got)
}
