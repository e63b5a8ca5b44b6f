package analyzer

import "strings"

// standardize is this module's stand-in for the ICU transliteration
// pipeline legacy_icu_tokenizer.py calls make_standard_word: lower-case,
// collapse whitespace, trim. The real rule set is external, versioned
// configuration data (normalization + transliteration rules plus an
// abbreviation table), not something the indexing driver itself computes.
func standardize(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	return strings.Join(fields, " ")
}
