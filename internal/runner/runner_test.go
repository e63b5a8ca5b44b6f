package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDTuple(t *testing.T) {
	assert.Equal(t, "()", idTuple(nil))
	assert.Equal(t, "(1)", idTuple([]int64{1}))
	assert.Equal(t, "(1,2,3)", idTuple([]int64{1, 2, 3}))
}

func TestRankRunnerSQL(t *testing.T) {
	r := NewRankRunner(16, nil)
	assert.Equal(t, "rank 16", r.Name())
	assert.Contains(t, r.SQLCountObjects(), "rank_address = 16")
	assert.Contains(t, r.SQLGetObjects(), "ORDER BY geometry_sector")
}

func TestBoundaryRunnerSQL(t *testing.T) {
	r := NewBoundaryRunner(8, nil)
	assert.Equal(t, "boundaries rank 8", r.Name())
	assert.Contains(t, r.SQLCountObjects(), "rank_search = 8")
	assert.Contains(t, r.SQLCountObjects(), "class = 'boundary'")
	assert.Contains(t, r.SQLGetObjects(), "ORDER BY partition, admin_level")
}

func TestInterpolationRunnerSQL(t *testing.T) {
	r := NewInterpolationRunner(nil)
	assert.Contains(t, r.SQLGetObjects(), "location_property_osmline")
	sql, _ := r.SQLGetObjectInfo([]int64{5, 6})
	assert.Contains(t, sql, "get_interpolation_address")
	assert.Contains(t, sql, "(5,6)")
}

func TestPostcodeRunnerHasNoPrefetch(t *testing.T) {
	r := NewPostcodeRunner()
	var asRunner Runner = r
	_, isObjectInfo := asRunner.(ObjectInfoRunner)
	assert.False(t, isObjectInfo, "PostcodeRunner must not implement ObjectInfoRunner")

	assert.Contains(t, r.SQLGetObjects(), "ORDER BY country_code, postcode")

	sql, args, err := r.SQLIndexPlaces(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, sql, "location_postcode")
	require.Len(t, args, 1)
}

func TestPlacexRunnerIsObjectInfoRunner(t *testing.T) {
	r := NewRankRunner(10, nil)
	var asRunner Runner = r
	_, ok := asRunner.(ObjectInfoRunner)
	assert.True(t, ok, "RankRunner must implement ObjectInfoRunner via placexRunner")
}

func TestEncodeHstore(t *testing.T) {
	assert.Equal(t, "", encodeHstore(nil))
	got := encodeHstore(map[string]string{"city": "Springfield"})
	assert.Equal(t, `"city"=>"Springfield"`, got)
}
