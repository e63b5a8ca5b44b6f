package runner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lonvia/Nominatim/internal/analyzer"
	"github.com/lonvia/Nominatim/internal/ierrors"
)

// InterpolationRunner indexes address interpolation lines in
// location_property_osmline. Its prefetch calls get_interpolation_address
// instead of placex_prepare_update, so it does not share placexRunner's
// SQLGetObjectInfo, but the UPDATE shape is identical.
type InterpolationRunner struct {
	analyzer *analyzer.NameAnalyzer
}

func NewInterpolationRunner(a *analyzer.NameAnalyzer) *InterpolationRunner {
	return &InterpolationRunner{analyzer: a}
}

func (r *InterpolationRunner) Name() string {
	return "interpolation lines (location_property_osmline)"
}

func (r *InterpolationRunner) SQLCountObjects() string {
	return `SELECT count(*) FROM location_property_osmline WHERE indexed_status > 0`
}

func (r *InterpolationRunner) SQLGetObjects() string {
	return `SELECT place_id FROM location_property_osmline
	        WHERE indexed_status > 0 ORDER BY geometry_sector`
}

// get_interpolation_address returns hstore, same as placex_prepare_update's
// address column; the connection needs the same per-connection hstore
// registration (dbconn.registerHstore).
func (r *InterpolationRunner) SQLGetObjectInfo(ids []int64) (string, []any) {
	return fmt.Sprintf(`SELECT place_id, get_interpolation_address(address, osm_id) AS address
	                     FROM location_property_osmline WHERE place_id IN %s`, idTuple(ids)), nil
}

func (r *InterpolationRunner) SQLIndexPlaces(ctx context.Context, rows []Row) (string, []any, error) {
	ids := make([]int64, len(rows))
	addrs := make([]string, len(rows))
	tis := make([]string, len(rows))

	for i, row := range rows {
		info, err := r.analyzer.Tokenize(ctx, row.Place)
		if err != nil {
			return "", nil, err
		}
		tiJSON, err := json.Marshal(info)
		if err != nil {
			return "", nil, ierrors.NewQuery(err, "marshal token_info")
		}

		ids[i] = row.Place.PlaceID
		addrs[i] = encodeHstore(row.Address)
		tis[i] = string(tiJSON)
	}

	return `
		UPDATE location_property_osmline AS p
		SET indexed_status = 0, address = v.addr::hstore, token_info = v.ti::jsonb
		FROM (SELECT unnest($1::bigint[]) AS id, unnest($2::text[]) AS addr, unnest($3::text[]) AS ti) AS v
		WHERE p.place_id = v.id`, []any{ids, addrs, tis}, nil
}

func (r *InterpolationRunner) Close(ctx context.Context) error {
	if r.analyzer == nil {
		return nil
	}
	err := r.analyzer.Close(ctx)
	r.analyzer = nil
	return err
}
