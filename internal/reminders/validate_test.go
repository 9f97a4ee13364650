package reminders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidTextAcceptsThreeCharacters(t *testing.T) {
	require.True(t, ValidText("sup"))
}

func TestValidTextRejectsTwoCharacters(t *testing.T) {
	require.False(t, ValidText("hi"))
}

func TestValidTextRejectsPureNumeric(t *testing.T) {
	require.False(t, ValidText("12345"))
}

func TestValidTextRejectsMeaninglessTemplate(t *testing.T) {
	require.False(t, ValidText("test"))
}

func TestValidTextAcceptsOrdinarySentence(t *testing.T) {
	require.True(t, ValidText("Stand up"))
}
