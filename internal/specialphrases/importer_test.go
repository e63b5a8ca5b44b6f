package specialphrases

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/lonvia/Nominatim/internal/analyzer"
)

func newTestImporter(lists Lists) *Importer {
	return New(nil, lists, zerolog.Nop())
}

func TestFilterNormalizesOperator(t *testing.T) {
	imp := newTestImporter(Lists{})

	p, ok := imp.filter("en", RawPhrase{Label: "Hotel", Class: "tourism", Type: "hotel", Operator: "near"})
	assert.True(t, ok)
	assert.Equal(t, "near", p.Operator)

	p, ok = imp.filter("en", RawPhrase{Label: "Hotel", Class: "tourism", Type: "hotel", Operator: "whatever"})
	assert.True(t, ok)
	assert.Equal(t, "-", p.Operator, "any operator other than near/in collapses to -")
}

func TestFilterBlackList(t *testing.T) {
	imp := newTestImporter(Lists{BlackList: map[string][]string{"tourism": {"hotel"}}})
	_, ok := imp.filter("en", RawPhrase{Class: "tourism", Type: "hotel"})
	assert.False(t, ok, "a blacklisted class/type pair must be filtered out")
}

func TestFilterWhiteList(t *testing.T) {
	imp := newTestImporter(Lists{WhiteList: map[string][]string{"tourism": {"hotel"}}})

	_, ok := imp.filter("en", RawPhrase{Class: "tourism", Type: "hotel"})
	assert.True(t, ok, "a whitelisted type must survive")

	_, ok = imp.filter("en", RawPhrase{Class: "tourism", Type: "museum"})
	assert.False(t, ok, "a type absent from the whitelist for a listed class must be filtered out")
}

func TestFilterSanityCheckRejectsGarbage(t *testing.T) {
	imp := newTestImporter(Lists{})

	_, ok := imp.filter("en", RawPhrase{Class: "tourism hotel", Type: "hotel"})
	assert.False(t, ok, "a class containing whitespace fails the sanity check")

	_, ok = imp.filter("en", RawPhrase{Class: "tourism", Type: "hotel; DROP TABLE word"})
	assert.False(t, ok, "a type containing punctuation fails the sanity check")
}

func TestListsBlocked(t *testing.T) {
	l := Lists{
		BlackList: map[string][]string{"shop": {"supermarket"}},
		WhiteList: map[string][]string{"tourism": {"hotel", "museum"}},
	}
	assert.True(t, l.blocked("shop", "supermarket"))
	assert.False(t, l.blocked("shop", "bakery"))
	assert.True(t, l.blocked("tourism", "viewpoint"))
	assert.False(t, l.blocked("tourism", "hotel"))
	assert.False(t, l.blocked("amenity", "cafe"), "a class absent from both lists is unrestricted")
}

func TestDedupKey(t *testing.T) {
	a := analyzer.Phrase{Label: "Hotel", Class: "tourism", Type: "hotel", Operator: "-"}
	b := analyzer.Phrase{Label: "Hotel", Class: "tourism", Type: "hotel", Operator: "-"}
	assert.Equal(t, a, b, "identical phrases must compare equal for the dedup set")
}
