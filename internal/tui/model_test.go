package tui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestTitleShortQuestionUnchanged(t *testing.T) {
	require.Equal(t, "How much was rent?", title("  How much was rent?  "))
}

func TestTitleTruncatesLongQuestion(t *testing.T) {
	q := strings.Repeat("a", 60)
	require.Equal(t, strings.Repeat("a", 40)+"…", title(q))
}

func TestTitleTruncatesOnRuneBoundary(t *testing.T) {
	q := strings.Repeat("é", 50)
	got := title(q)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, strings.Repeat("é", 40)+"…", got)
}
