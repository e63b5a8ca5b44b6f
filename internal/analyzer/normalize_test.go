package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardize(t *testing.T) {
	cases := map[string]string{
		"Main   Street":  "main street",
		"  Trim Me  ":    "trim me",
		"ALLCAPS":        "allcaps",
		"already normal": "already normal",
	}
	for in, want := range cases {
		assert.Equal(t, want, standardize(in), "input %q", in)
	}
}

func TestNormalizePostcode(t *testing.T) {
	assert.Equal(t, "AB1 2CD", normalizePostcode(" ab1 2cd "))
	assert.Equal(t, "", normalizePostcode("ab1,2cd"), "a comma is disallowed by the postcode pattern")
	assert.Equal(t, "", normalizePostcode("ab1:2cd"))
	assert.Equal(t, "", normalizePostcode("ab1;2cd"))
}

func TestPhraseNormalizedOperator(t *testing.T) {
	assert.Equal(t, "", Phrase{Operator: "-"}.normalizedOperator())
	assert.Equal(t, "near", Phrase{Operator: "near"}.normalizedOperator())
	assert.Equal(t, "in", Phrase{Operator: "in"}.normalizedOperator())
}
