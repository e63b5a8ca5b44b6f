package runner

import (
	"fmt"

	"github.com/lonvia/Nominatim/internal/analyzer"
)

// BoundaryRunner indexes administrative boundary polygons of a single
// search rank, ordered by partition and admin_level.
type BoundaryRunner struct {
	placexRunner
}

func NewBoundaryRunner(rank int, a *analyzer.NameAnalyzer) *BoundaryRunner {
	return &BoundaryRunner{placexRunner{rank: rank, analyzer: a}}
}

func (r *BoundaryRunner) Name() string { return fmt.Sprintf("boundaries rank %d", r.rank) }

func (r *BoundaryRunner) SQLCountObjects() string {
	return fmt.Sprintf(`SELECT count(*) FROM placex
	                     WHERE indexed_status > 0 AND rank_search = %d
	                       AND class = 'boundary' AND type = 'administrative'`, r.rank)
}

func (r *BoundaryRunner) SQLGetObjects() string {
	return fmt.Sprintf(`SELECT place_id FROM placex
	                     WHERE indexed_status > 0 AND rank_search = %d
	                       AND class = 'boundary' AND type = 'administrative'
	                     ORDER BY partition, admin_level`, r.rank)
}
