// Package place defines the row-level data model shared by every stage of
// the indexing pipeline: the raw attributes read from the source tables and
// the token_info payload written back by the analyzer.
package place

// Place is one candidate row fetched for indexing. Any field beyond PlaceID
// may be absent; Name and Address are nil, not empty, when the source row
// carries no such tag.
type Place struct {
	PlaceID        int64
	Name           map[string]string
	Address        map[string]string
	CountryFeature string
	RankAddress    int
	RankSearch     int
}

// TokenInfo is the JSON document written into a row's token_info column.
// A nil field means "no such attribute on this place" per the wire schema.
type TokenInfo struct {
	Names        *string              `json:"names,omitempty"`
	HnrSearch    *string              `json:"hnr_search,omitempty"`
	HnrMatch     *string              `json:"hnr_match,omitempty"`
	StreetMatch  *string              `json:"street_match,omitempty"`
	StreetSearch *string              `json:"street_search,omitempty"`
	PlaceMatch   *string              `json:"place_match,omitempty"`
	PlaceSearch  *string              `json:"place_search,omitempty"`
	Addr         map[string][2]string `json:"addr,omitempty"`
}

// IsEmpty reports whether no field was ever populated, which lets callers
// skip an UPDATE's token_info assignment cost for placeholder rows.
func (t TokenInfo) IsEmpty() bool {
	return t.Names == nil && t.HnrSearch == nil && t.HnrMatch == nil &&
		t.StreetMatch == nil && t.StreetSearch == nil &&
		t.PlaceMatch == nil && t.PlaceSearch == nil && len(t.Addr) == 0
}

func StringPtr(s string) *string { return &s }
