// Package indexer implements the top-level orchestrator: it drives
// rank-stratified passes over placex, location_property_osmline,
// and location_postcode, each pass fanning work out across a WorkerPool.
package indexer

import (
	"context"
	"runtime"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/lonvia/Nominatim/internal/analyzer"
	"github.com/lonvia/Nominatim/internal/ierrors"
	"github.com/lonvia/Nominatim/internal/metrics"
	"github.com/lonvia/Nominatim/internal/runner"
)

// defaultBatchSize is used for every rank and boundary pass except the
// interpolation and rank-30 passes, which rankPassPlan batches at 20.
const defaultBatchSize = 1

// sliceSize is the number of ids fetched from the enumeration cursor per
// FETCH FORWARD round-trip and handed to a worker in one StartSlice call.
const sliceSize = 300

// Indexer is the top-level orchestrator bound to one database pool.
type Indexer struct {
	pool       *pgxpool.Pool
	numThreads int
	log        zerolog.Logger
	metrics    *metrics.Metrics
}

// New constructs an Indexer. If numThreads <= 0 it defaults to the host's
// CPU count, matching the Python default of one worker per core. m may be
// nil, in which case the pass loop skips instrumentation.
func New(dbPool *pgxpool.Pool, numThreads int, log zerolog.Logger, m *metrics.Metrics) *Indexer {
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	return &Indexer{pool: dbPool, numThreads: numThreads, log: log, metrics: m}
}

// IndexFull runs the canonical five-pass pipeline: root containers,
// administrative boundaries, mid-level addresses, the fine-grained tail
// (which also picks up rank-0 placeholders, interpolations and rank-30
// points), then postcodes. ANALYZE runs between passes when analyse is true.
func (ix *Indexer) IndexFull(ctx context.Context, analyse bool) error {
	steps := []func(context.Context) error{
		func(ctx context.Context) error { return ix.IndexByRank(ctx, 0, 4) },
		func(ctx context.Context) error { return ix.IndexBoundaries(ctx, 0, 30) },
		func(ctx context.Context) error { return ix.IndexByRank(ctx, 5, 25) },
		func(ctx context.Context) error { return ix.IndexByRank(ctx, 26, 30) },
		func(ctx context.Context) error { return ix.IndexPostcodes(ctx) },
	}

	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
		if analyse {
			if err := ix.analyze(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ix *Indexer) analyze(ctx context.Context) error {
	conn, err := ix.pool.Acquire(ctx)
	if err != nil {
		return ierrors.NewConnectivity(err, "acquire connection for ANALYZE")
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "ANALYZE"); err != nil {
		return ierrors.NewQuery(err, "ANALYZE")
	}
	return nil
}

// passKind distinguishes the runner a rankPassStep builds.
type passKind int

const (
	passRank passKind = iota
	passInterpolation
)

// rankPassStep is one entry in the ordered work list IndexByRank drives.
type rankPassStep struct {
	kind      passKind
	rank      int
	batchSize int
}

// rankPassPlan computes the ordered list of passes index_by_rank(minrank,
// maxrank) runs in the retrieved indexer.py: ranks max(1,minRank) up to
// (but not including) min(maxRank,30) in increasing order, each at the
// default batch size; then, if maxRank reached 30, rank 0, the
// interpolation table at batch 20, and rank 30 at batch 20 — in that
// order, never interleaved with the main loop. If maxRank fell short of
// 30, maxRank itself is indexed once more explicitly, since the loop
// above excludes it (Python's range(lo, hi) is half-open) — unless it is
// below the floored lower bound, so rankPassPlan(0, 0) is empty. Pure and
// side-effect free so rank clamping and tail ordering can be tested
// without a database.
func rankPassPlan(minRank, maxRank int) []rankPassStep {
	if maxRank > 30 {
		maxRank = 30
	}
	lo := minRank
	if lo < 1 {
		lo = 1
	}

	var steps []rankPassStep
	for rank := lo; rank < maxRank; rank++ {
		steps = append(steps, rankPassStep{kind: passRank, rank: rank, batchSize: defaultBatchSize})
	}

	if maxRank == 30 {
		steps = append(steps,
			rankPassStep{kind: passRank, rank: 0, batchSize: defaultBatchSize},
			rankPassStep{kind: passInterpolation, batchSize: 20},
			rankPassStep{kind: passRank, rank: 30, batchSize: 20},
		)
	} else if maxRank >= lo {
		steps = append(steps, rankPassStep{kind: passRank, rank: maxRank, batchSize: defaultBatchSize})
	}

	return steps
}

// IndexByRank indexes placex rows in rank_address [minRank,maxRank] in the
// order rankPassPlan computes. When max reaches 30 the pass additionally
// runs rank 0 last, then the interpolation table and rank-30 points at
// batch size 20 — rank 0 is always run last within a max==30 pass, after
// ranks 1..29, and interpolations/postcodes are never interleaved with
// placex ranks.
func (ix *Indexer) IndexByRank(ctx context.Context, minRank, maxRank int) error {
	for _, step := range rankPassPlan(minRank, maxRank) {
		a, err := ix.newAnalyzer(ctx)
		if err != nil {
			return err
		}

		var r runner.Runner
		switch step.kind {
		case passInterpolation:
			r = runner.NewInterpolationRunner(a)
		default:
			r = runner.NewRankRunner(step.rank, a)
		}

		if err := ix.runPass(ctx, r, step.batchSize); err != nil {
			return err
		}
	}
	return nil
}

// boundaryRanks computes the ordered list of ranks index_boundaries(minrank,
// maxrank) runs in the retrieved indexer.py: range(max(minrank,4),
// min(maxrank,26)), a half-open Python range — so a maxRank at or below 4
// yields no ranks at all, not a single floor-clamped pass. Pure and
// side-effect free for the same reason as rankPassPlan.
func boundaryRanks(minRank, maxRank int) []int {
	lo := minRank
	if lo < 4 {
		lo = 4
	}
	hi := maxRank
	if hi > 26 {
		hi = 26
	}

	var ranks []int
	for rank := lo; rank < hi; rank++ {
		ranks = append(ranks, rank)
	}
	return ranks
}

// IndexBoundaries indexes administrative boundary polygons of search rank
// max(minRank,4) up to but excluding min(maxRank,26), per boundaryRanks.
func (ix *Indexer) IndexBoundaries(ctx context.Context, minRank, maxRank int) error {
	for _, rank := range boundaryRanks(minRank, maxRank) {
		a, err := ix.newAnalyzer(ctx)
		if err != nil {
			return err
		}
		if err := ix.runPass(ctx, runner.NewBoundaryRunner(rank, a), defaultBatchSize); err != nil {
			return err
		}
	}
	return nil
}

// IndexPostcodes indexes location_postcode at batch size 20.
func (ix *Indexer) IndexPostcodes(ctx context.Context) error {
	return ix.runPass(ctx, runner.NewPostcodeRunner(), 20)
}

// MarkIndexed flags the import as fully indexed.
func (ix *Indexer) MarkIndexed(ctx context.Context) error {
	conn, err := ix.pool.Acquire(ctx)
	if err != nil {
		return ierrors.NewConnectivity(err, "acquire connection for MarkIndexed")
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "UPDATE import_status SET indexed = TRUE"); err != nil {
		return ierrors.NewQuery(err, "UPDATE import_status")
	}
	return nil
}

func (ix *Indexer) newAnalyzer(ctx context.Context) (*analyzer.NameAnalyzer, error) {
	pooled, err := ix.pool.Acquire(ctx)
	if err != nil {
		return nil, ierrors.NewConnectivity(err, "acquire connection for analyzer")
	}
	conn := pooled.Hijack()
	return analyzer.New(ctx, conn, ix.log)
}
