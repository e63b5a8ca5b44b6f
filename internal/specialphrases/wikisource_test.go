package specialphrases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOccurrences(t *testing.T) {
	content := `
| Hotel || tourism || hotel || - || Y
| Museums || tourism || "museum" || in || N
`
	phrases := parseOccurrences(content, "en")
	require.Len(t, phrases, 2)

	assert.Equal(t, "Hotel", phrases[0].Label)
	assert.Equal(t, "tourism", phrases[0].Class)
	assert.Equal(t, "hotel", phrases[0].Type)
	assert.Equal(t, "-", phrases[0].Operator)
	assert.Equal(t, "Y", phrases[0].Plural)
	assert.Equal(t, "en", phrases[0].Language)

	assert.Equal(t, "museum", phrases[1].Type, "surrounding quote marks are stripped")
	assert.Equal(t, "in", phrases[1].Operator)
}

func TestParseOccurrencesNoMatches(t *testing.T) {
	phrases := parseOccurrences("no table rows here", "en")
	assert.Empty(t, phrases)
}

func TestNewWikiSourceUsesDefaultClient(t *testing.T) {
	s := NewWikiSource()
	require.NotNil(t, s.Client)
}
