package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lonvia/Nominatim/internal/analyzer"
	"github.com/lonvia/Nominatim/internal/ierrors"
)

// placexRunner is the shared base of RankRunner and BoundaryRunner, mirroring
// AbstractPlacexRunner in the retrieved runners.py: both select from placex,
// both prefetch via placex_prepare_update, both write the same three
// columns back.
type placexRunner struct {
	rank     int
	analyzer *analyzer.NameAnalyzer
}

const placexIndexSQL = `
	UPDATE placex AS p
	SET indexed_status = 0, address = v.addr::hstore, token_info = v.ti::jsonb
	FROM (SELECT unnest($1::bigint[]) AS id, unnest($2::text[]) AS addr, unnest($3::text[]) AS ti) AS v
	WHERE p.place_id = v.id`

// SQLGetObjectInfo's composite expansion includes two hstore-typed columns,
// name and address; the connection these run on must have registered an
// hstore codec (see dbconn.registerHstore) or rows.Values() cannot decode
// them.
func (r *placexRunner) SQLGetObjectInfo(ids []int64) (string, []any) {
	return fmt.Sprintf(`SELECT place_id, (placex_prepare_update(placex)).*
	                     FROM placex WHERE place_id IN %s`, idTuple(ids)), nil
}

func (r *placexRunner) SQLIndexPlaces(ctx context.Context, rows []Row) (string, []any, error) {
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

	return placexIndexSQL, []any{ids, addrs, tis}, nil
}

func (r *placexRunner) Close(ctx context.Context) error {
	if r.analyzer == nil {
		return nil
	}
	err := r.analyzer.Close(ctx)
	r.analyzer = nil
	return err
}

// encodeHstore renders a Go map as a Postgres hstore text literal, the
// format cast with `::hstore` in placexIndexSQL.
func encodeHstore(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m))
	for k, v := range m {
		parts = append(parts, quoteHstore(k)+"=>"+quoteHstore(v))
	}
	return strings.Join(parts, ",")
}

func quoteHstore(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
