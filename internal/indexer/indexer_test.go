package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankPassPlanMidRangeIsOrdinaryOrder(t *testing.T) {
	steps := rankPassPlan(5, 25)
	assertAllRankSteps(t, steps, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25)
	for _, s := range steps {
		assert.Equal(t, defaultBatchSize, s.batchSize)
	}
}

func TestRankPassPlanMinRankBelowOneIsFloored(t *testing.T) {
	steps := rankPassPlan(0, 3)
	assertAllRankSteps(t, steps, 1, 2, 3)
}

func TestRankPassPlanSingleRankWhenMinEqualsMax(t *testing.T) {
	// minRank==maxRank: the main loop is empty (range(25,25) has no
	// members) and the maxRank!=30 branch indexes rank 25 once.
	steps := rankPassPlan(25, 25)
	assertAllRankSteps(t, steps, 25)
}

func TestRankPassPlanTailOrderWhenMaxRankIs30(t *testing.T) {
	steps := rankPassPlan(26, 30)

	require := assert.New(t)
	require.Len(steps, 7, "ranks 26..29, then rank 0, interpolation, rank 30")

	for i, want := range []int{26, 27, 28, 29} {
		require.Equal(passRank, steps[i].kind)
		require.Equal(want, steps[i].rank)
		require.Equal(defaultBatchSize, steps[i].batchSize)
	}

	require.Equal(passRank, steps[4].kind)
	require.Equal(0, steps[4].rank, "rank 0 runs last among placex ranks, never interleaved")
	require.Equal(defaultBatchSize, steps[4].batchSize)

	require.Equal(passInterpolation, steps[5].kind)
	require.Equal(20, steps[5].batchSize)

	require.Equal(passRank, steps[6].kind)
	require.Equal(30, steps[6].rank)
	require.Equal(20, steps[6].batchSize)

	// IndexFull's last IndexByRank call covers 26..30; a freestanding 0..30 request
	// must show the identical tail shape starting from rank 1.
	full := rankPassPlan(0, 30)
	assert.Equal(t, passRank, full[len(full)-3].kind)
	assert.Equal(t, 0, full[len(full)-3].rank)
	assert.Equal(t, passInterpolation, full[len(full)-2].kind)
	assert.Equal(t, 30, full[len(full)-1].rank)
}

func TestRankPassPlanMaxRankAboveThirtyClampsToThirty(t *testing.T) {
	steps := rankPassPlan(26, 99)
	last := steps[len(steps)-1]
	assert.Equal(t, 30, last.rank)
	assert.Equal(t, 20, last.batchSize, "an out-of-range maxRank must still reach the maxRank==30 tail")
}

func assertAllRankSteps(t *testing.T, steps []rankPassStep, wantRanks ...int) {
	t.Helper()
	require := assert.New(t)
	require.Len(steps, len(wantRanks))
	for i, want := range wantRanks {
		require.Equal(passRank, steps[i].kind)
		require.Equal(want, steps[i].rank)
	}
}

func TestBoundaryRanksOrdinaryRange(t *testing.T) {
	assert.Equal(t, []int{4, 5, 6, 7, 8, 9, 10}, boundaryRanks(4, 11))
}

func TestBoundaryRanksNoOpWhenMaxRankAtOrBelowFloor(t *testing.T) {
	assert.Nil(t, boundaryRanks(0, 3), "maxRank below the rank-4 floor must run no boundary pass at all")
	assert.Nil(t, boundaryRanks(0, 4), "a half-open range means maxRank==4 still excludes rank 4 itself")
}

func TestBoundaryRanksMinRankBelowFloorIsFloored(t *testing.T) {
	assert.Equal(t, []int{4, 5}, boundaryRanks(0, 6))
}

func TestBoundaryRanksMaxRankAboveCeilingIsClamped(t *testing.T) {
	assert.Equal(t, []int{4, 5}, boundaryRanks(4, 6))
	got := boundaryRanks(4, 99)
	assert.Equal(t, 25, got[len(got)-1], "the ceiling clamp keeps the highest indexed rank at 25")
}

func TestDefaultBatchSizeAndSliceSizeConstants(t *testing.T) {
	assert.Equal(t, 1, defaultBatchSize)
	assert.Equal(t, 300, sliceSize)
}
