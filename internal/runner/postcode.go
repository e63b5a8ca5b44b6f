package runner

import (
	"context"
)

// PostcodeRunner indexes location_postcode rows. Unlike the other three
// runners it needs no prefetch round-trip and no NameAnalyzer: the
// indexed_status reset is the entire update, there is no token_info to
// compute.
type PostcodeRunner struct{}

func NewPostcodeRunner() *PostcodeRunner {
	return &PostcodeRunner{}
}

func (r *PostcodeRunner) Name() string { return "postcodes (location_postcode)" }

func (r *PostcodeRunner) SQLCountObjects() string {
	return `SELECT count(*) FROM location_postcode WHERE indexed_status > 0`
}

func (r *PostcodeRunner) SQLGetObjects() string {
	return `SELECT place_id FROM location_postcode
	        WHERE indexed_status > 0 ORDER BY country_code, postcode`
}

func (r *PostcodeRunner) SQLIndexPlaces(ctx context.Context, rows []Row) (string, []any, error) {
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.Place.PlaceID
	}
	return `UPDATE location_postcode SET indexed_status = 0 WHERE place_id = ANY($1::bigint[])`,
		[]any{ids}, nil
}

func (r *PostcodeRunner) Close(ctx context.Context) error { return nil }
