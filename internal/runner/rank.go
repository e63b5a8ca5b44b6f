package runner

import (
	"fmt"

	"github.com/lonvia/Nominatim/internal/analyzer"
)

// RankRunner indexes all placex rows of a single address rank, ordered by
// geometry_sector for spatial locality on the server side.
type RankRunner struct {
	placexRunner
}

func NewRankRunner(rank int, a *analyzer.NameAnalyzer) *RankRunner {
	return &RankRunner{placexRunner{rank: rank, analyzer: a}}
}

func (r *RankRunner) Name() string { return fmt.Sprintf("rank %d", r.rank) }

func (r *RankRunner) SQLCountObjects() string {
	return fmt.Sprintf(`SELECT count(*) FROM placex
	                     WHERE rank_address = %d AND indexed_status > 0`, r.rank)
}

func (r *RankRunner) SQLGetObjects() string {
	return fmt.Sprintf(`SELECT place_id FROM placex
	                     WHERE indexed_status > 0 AND rank_address = %d
	                     ORDER BY geometry_sector`, r.rank)
}
