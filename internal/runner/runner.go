// Package runner implements the pluggable per-pass parameterisation: each
// Runner supplies the count/enumeration/prefetch/update SQL for one
// indexing pass over one source table.
package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/lonvia/Nominatim/internal/analyzer"
	"github.com/lonvia/Nominatim/internal/place"
)

// Row is one fetched place ready to be tokenized and written back. Address
// carries the raw (possibly server-computed) address map for the row —
// for placex/interpolation runners this comes from the prefetch query's
// placex_prepare_update / get_interpolation_address result, not from the
// enumeration cursor.
type Row struct {
	Place   place.Place
	Address map[string]string
}

// Runner is the interface every indexing pass implements.
type Runner interface {
	Name() string
	SQLCountObjects() string
	SQLGetObjects() string
	SQLIndexPlaces(ctx context.Context, rows []Row) (string, []any, error)
	Close(ctx context.Context) error
}

// ObjectInfoRunner is implemented by runners whose batches need a prefetch
// round-trip before the UPDATE can be built (everything except postcodes).
type ObjectInfoRunner interface {
	Runner
	SQLGetObjectInfo(ids []int64) (string, []any)
}

// idTuple renders a parenthesised, comma-separated id list for an IN (...)
// clause, matching `tuple(place_ids)` in the
// retrieved runners.py.
func idTuple(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "(" + strings.Join(parts, ",") + ")"
}
