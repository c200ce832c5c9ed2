package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	require.Equal(t, "Grilled Chicken Breast", CleanText("  Grilled   Chicken\n\tBreast  "))
	require.Equal(t, "Serving Size 5oz", CleanText("Serving Size   5oz\x00"))
	require.Equal(t, "", CleanText(" \n\t "))
}

func TestFirstNumber(t *testing.T) {
	number, ok := FirstNumber("Calories 220")
	require.True(t, ok)
	require.Equal(t, "220", number)

	number, ok = FirstNumber("Serving Size: 4.5oz")
	require.True(t, ok)
	require.Equal(t, "4.5", number)

	_, ok = FirstNumber("no digits here")
	require.False(t, ok)
}
