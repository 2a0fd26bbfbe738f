package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/inkwell/internal/notes"
)

func TestHighlightRegexp_CaseInsensitive(t *testing.T) {
	re := highlightRegexp([]string{"milk"})
	require.NotNil(t, re)

	spans := regexSpans(re, "Milk first, then MILK again")
	assert.Equal(t, []notes.Span{{Start: 0, End: 4}, {Start: 17, End: 21}}, spans)
}

func TestHighlightRegexp_LongerTokenWins(t *testing.T) {
	re := highlightRegexp([]string{"not", "note"})
	require.NotNil(t, re)

	spans := regexSpans(re, "notebook")
	require.Len(t, spans, 1)
	assert.Equal(t, notes.Span{Start: 0, End: 4}, spans[0], "should match 'note', not 'not'")
}

func TestHighlightRegexp_EscapesMetaChars(t *testing.T) {
	re := highlightRegexp([]string{"a.b"})
	require.NotNil(t, re)

	assert.Nil(t, regexSpans(re, "axb"), "dot must be literal")
	assert.NotNil(t, regexSpans(re, "a.b"))
}

func TestHighlightRegexp_Empty(t *testing.T) {
	assert.Nil(t, highlightRegexp(nil))
	assert.Nil(t, highlightRegexp([]string{"", ""}))
}
