// Package analyzer turns a place.Place into the JSON token_info payload the
// indexer writes back, and maintains the shared word dictionary as a side
// effect. One NameAnalyzer is bound to exactly one worker for the lifetime
// of a pass; it is not safe for concurrent use.
package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/lonvia/Nominatim/internal/ierrors"
	"github.com/lonvia/Nominatim/internal/place"
)

const (
	streetPlaceCacheSize = 256
	addrCacheSize        = 1024
	postcodeCacheSize    = 32
)

var (
	countryCodePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)
	lowerCCPattern     = regexp.MustCompile(`^[a-z]{2}$`)
	postcodePattern    = regexp.MustCompile(`^[^:,;]+$`)
	hnrSplitPattern    = regexp.MustCompile(`[;,]`)
)

var reservedAddrKeys = map[string]bool{
	"country": true, "street": true, "place": true, "postcode": true,
	"full": true, "housenumber": true, "streetnumber": true, "conscriptionnumber": true,
}

// NameAnalyzer holds the per-worker connection and caches. It is created
// once per worker when the worker binds to its runner, and released when
// the pass ends.
type NameAnalyzer struct {
	conn *pgx.Conn
	log  zerolog.Logger

	housenumbers map[string]string // precomputed, immutable, keys "1".."100"

	streetPlace *loadingCache[[2]string]
	addr        *loadingCache[[2]string]
	postcode    *loadingCache[struct{}]
}

// New constructs an analyzer bound to conn, which must be a dedicated
// auto-commit connection not shared with any other analyzer or worker.
func New(ctx context.Context, conn *pgx.Conn, log zerolog.Logger) (*NameAnalyzer, error) {
	a := &NameAnalyzer{conn: conn, log: log}

	if err := a.precomputeHousenumbers(ctx); err != nil {
		return nil, err
	}

	a.streetPlace = newLoadingCache(streetPlaceCacheSize, a.loadStreetPlaceTerms)
	a.addr = newLoadingCache(addrCacheSize, a.loadAddrTerms)
	a.postcode = newLoadingCache(postcodeCacheSize, a.loadPostcodeID)

	if err := a.seedPostcodeCache(ctx); err != nil {
		return nil, err
	}

	return a, nil
}

// Close shuts down the analyzer's connection. Idempotent.
func (a *NameAnalyzer) Close(ctx context.Context) error {
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close(ctx)
	a.conn = nil
	return err
}

func (a *NameAnalyzer) precomputeHousenumbers(ctx context.Context) error {
	rows, err := a.conn.Query(ctx, `
		SELECT i, ARRAY[getorcreate_housenumber_id(i::text)]::text
		FROM generate_series(1, 100) as i`)
	if err != nil {
		return ierrors.NewQuery(err, "precompute housenumbers")
	}
	defer rows.Close()

	a.housenumbers = make(map[string]string, 100)
	for rows.Next() {
		var i int
		var tokens string
		if err := rows.Scan(&i, &tokens); err != nil {
			return ierrors.NewQuery(err, "scan precomputed housenumber")
		}
		a.housenumbers[strconv.Itoa(i)] = tokens
	}
	return rows.Err()
}

func (a *NameAnalyzer) seedPostcodeCache(ctx context.Context) error {
	rows, err := a.conn.Query(ctx, `SELECT word FROM word WHERE class='place' AND type='postcode'`)
	if err != nil {
		return ierrors.NewQuery(err, "seed postcode cache")
	}
	defer rows.Close()

	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return ierrors.NewQuery(err, "scan seeded postcode")
		}
		a.postcode.Seed(word, struct{}{})
	}
	return rows.Err()
}

// Tokenize returns the token_info payload for p and, as a side effect,
// ensures every referenced token exists in the word table.
func (a *NameAnalyzer) Tokenize(ctx context.Context, p place.Place) (place.TokenInfo, error) {
	var info place.TokenInfo

	if len(p.Name) > 0 {
		names, err := a.tokenizeNames(ctx, p)
		if err != nil {
			return info, err
		}
		info.Names = &names
	}

	if len(p.Address) > 0 {
		if err := a.tokenizeAddress(ctx, p.Address, &info); err != nil {
			return info, err
		}
	}

	return info, nil
}

func (a *NameAnalyzer) tokenizeNames(ctx context.Context, p place.Place) (string, error) {
	normSet := make(map[string]struct{}, len(p.Name))
	for _, v := range p.Name {
		if n := standardize(v); n != "" {
			normSet[n] = struct{}{}
		}
	}
	normNames := make([]string, 0, len(normSet))
	partials := make(map[string]struct{})
	for n := range normSet {
		normNames = append(normNames, n)
		for _, part := range strings.Fields(n) {
			partials[part] = struct{}{}
		}
	}
	partialList := make([]string, 0, len(partials))
	for p := range partials {
		partialList = append(partialList, p)
	}

	var tokens string
	err := a.conn.QueryRow(ctx, `
		SELECT array_remove(array_agg(wid), null)::TEXT FROM
		(SELECT getorcreate_name_id(token, '') as wid FROM unnest($1::text[]) as token
		 UNION ALL
		 SELECT getorcreate_word_id(token) as wid FROM unnest($2::text[]) as token) y`,
		normNames, partialList).Scan(&tokens)
	if err != nil {
		return "", ierrors.NewQuery(err, "make name tokens")
	}

	if p.CountryFeature != "" && countryCodePattern.MatchString(p.CountryFeature) {
		if err := a.addNormalizedCountryNames(ctx, strings.ToLower(p.CountryFeature), normNames); err != nil {
			return "", err
		}
	}

	return tokens, nil
}

func (a *NameAnalyzer) tokenizeAddress(ctx context.Context, addr map[string]string, info *place.TokenInfo) error {
	var hnrs []string
	for _, k := range []string{"housenumber", "streetnumber", "conscriptionnumber"} {
		if v, ok := addr[k]; ok {
			hnrs = append(hnrs, v)
		}
	}
	if len(hnrs) > 0 {
		search, match, err := a.housenumberIDs(ctx, hnrs)
		if err != nil {
			return err
		}
		info.HnrSearch = &search
		info.HnrMatch = &match
	}

	if pc, ok := addr["postcode"]; ok {
		if normalized := normalizePostcode(pc); normalized != "" {
			if _, err := a.postcode.Get(ctx, normalized); err != nil {
				return err
			}
		}
	}

	for _, atype := range []string{"street", "place"} {
		if v, ok := addr[atype]; ok {
			match, search, err := a.streetPlaceTerms(ctx, v)
			if err != nil {
				return err
			}
			switch atype {
			case "street":
				info.StreetMatch, info.StreetSearch = &match, &search
			case "place":
				info.PlaceMatch, info.PlaceSearch = &match, &search
			}
		}
	}

	var otherKeys []string
	for k := range addr {
		if !reservedAddrKeys[k] {
			otherKeys = append(otherKeys, k)
		}
	}
	if len(otherKeys) > 0 {
		info.Addr = make(map[string][2]string, len(otherKeys))
		for _, k := range otherKeys {
			pair, err := a.addrTerms(ctx, addr[k])
			if err != nil {
				return err
			}
			info.Addr[k] = pair
		}
	}

	return nil
}

// housenumberIDs answers from the precomputed 1..100 table when there is
// exactly one numeric housenumber in range; otherwise it splits on `[;,]`,
// trims, deduplicates and calls create_housenumbers.
func (a *NameAnalyzer) housenumberIDs(ctx context.Context, hnrs []string) (search, match string, err error) {
	if len(hnrs) == 1 {
		if tokens, ok := a.housenumbers[hnrs[0]]; ok {
			return tokens, hnrs[0], nil
		}
	}

	simple := make(map[string]struct{})
	for _, hnr := range hnrs {
		for _, part := range hnrSplitPattern.Split(hnr, -1) {
			part = strings.TrimSpace(part)
			if part != "" {
				simple[part] = struct{}{}
			}
		}
	}

	normalized := make([]string, 0, len(simple))
	for s := range simple {
		normalized = append(normalized, standardize(s))
	}

	var tokens, canonical string
	err = a.conn.QueryRow(ctx, `SELECT (create_housenumbers($1::text[])).*`, normalized).
		Scan(&tokens, &canonical)
	if err != nil {
		return "", "", ierrors.NewQuery(err, "create housenumbers")
	}

	return tokens, canonical, nil
}

func (a *NameAnalyzer) loadPostcodeID(ctx context.Context, postcode string) (struct{}, error) {
	_, err := a.conn.Exec(ctx, `SELECT create_postcode_id($1)`, postcode)
	if err != nil {
		return struct{}{}, ierrors.NewQuery(err, "create postcode id")
	}
	return struct{}{}, nil
}

func (a *NameAnalyzer) streetPlaceTerms(ctx context.Context, name string) (match, search string, err error) {
	pair, err := a.streetPlace.Get(ctx, name)
	if err != nil {
		return "", "", err
	}
	return pair[0], pair[1], nil
}

func (a *NameAnalyzer) loadStreetPlaceTerms(ctx context.Context, name string) ([2]string, error) {
	norm := standardize(name)
	if norm == "" {
		return [2]string{"{}", "{}"}, nil
	}

	var search, match string
	err := a.conn.QueryRow(ctx, `
		SELECT word_ids_from_name($1)::text, ARRAY[getorcreate_name_id($1, '')]::text`,
		norm).Scan(&search, &match)
	if err != nil {
		return [2]string{}, ierrors.NewQuery(err, "street/place terms")
	}
	return [2]string{match, search}, nil
}

func (a *NameAnalyzer) addrTerms(ctx context.Context, name string) ([2]string, error) {
	return a.addr.Get(ctx, name)
}

func (a *NameAnalyzer) loadAddrTerms(ctx context.Context, name string) ([2]string, error) {
	norm := standardize(name)
	if norm == "" {
		return [2]string{"{}", "{}"}, nil
	}

	var addrIDs, wordIDs string
	err := a.conn.QueryRow(ctx, `
		SELECT addr_ids_from_name($1)::text, word_ids_from_name($1)::text`, norm).
		Scan(&addrIDs, &wordIDs)
	if err != nil {
		return [2]string{}, ierrors.NewQuery(err, "addr terms")
	}
	return [2]string{addrIDs, wordIDs}, nil
}

// AddCountryNames registers names against a country's own word table
// entries. cc must match ^[a-z]{2}$.
func (a *NameAnalyzer) AddCountryNames(ctx context.Context, cc string, names []string) error {
	if !lowerCCPattern.MatchString(cc) {
		return nil
	}
	normalized := make(map[string]struct{}, len(names))
	for _, n := range names {
		if s := standardize(n); s != "" {
			normalized[s] = struct{}{}
		}
	}
	normList := make([]string, 0, len(normalized))
	for n := range normalized {
		normList = append(normList, n)
	}
	return a.addNormalizedCountryNames(ctx, cc, normList)
}

func (a *NameAnalyzer) addNormalizedCountryNames(ctx context.Context, cc string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	_, err := a.conn.Exec(ctx, fmt.Sprintf(`
		INSERT INTO word (word_id, word_token, country_code, search_name_count)
		(SELECT nextval('seq_word'), ' ' || name, '%s', 0 FROM unnest($1::text[]) AS name
		 WHERE NOT EXISTS (SELECT * FROM word WHERE word_token = ' ' || name AND country_code = '%s'))
	`, cc, cc), names)
	if err != nil {
		return ierrors.NewQuery(err, "add country names")
	}
	return nil
}

// normalizePostcode must produce exactly the same normalized form as the
// SQL token_normalized_postcode() function it mirrors.
func normalizePostcode(postcode string) string {
	if !postcodePattern.MatchString(postcode) {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(postcode))
}
