package throughput

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glmParams() Params {
	return Params{
		LayerCount:               92,
		KVHeadCount:              8,
		HeadDim:                  53,
		KVDtypeBytes:             2,
		ActiveWeightBytesPerNode: 32 * GiB,
		PerNodeBandwidthGBps:     273,
		TensorParallelDegree:     4,
	}
}

func TestKVCacheBytes(t *testing.T) {
	p := glmParams()
	assert.Equal(t, float64(2*92*8*53*2*4096), p.KVCacheBytes(4096))
	assert.Equal(t, 0.0, p.KVCacheBytes(0))
	assert.InDelta(t, 0.595, p.KVCacheGB(4096), 0.001)
}

func TestTheoreticalTokensPerSecond(t *testing.T) {
	p := glmParams()

	got := p.TheoreticalTokensPerSecond(4096)
	assert.InDelta(t, 273.0*4/(32+p.KVCacheGB(4096)), got, 1e-9)
	assert.InDelta(t, 34, got, 0.6)

	// With no context the cache term vanishes.
	assert.InDelta(t, 273.0*4/32, p.TheoreticalTokensPerSecond(0), 1e-9)
}

func TestTheoreticalTokensPerSecondIsMonotonic(t *testing.T) {
	p := glmParams()
	prev := p.TheoreticalTokensPerSecond(0)
	for _, length := range []int{512, 1024, 2048, 4096, 8192, 16384, 32768, 131072} {
		next := p.TheoreticalTokensPerSecond(length)
		require.Less(t, next, prev, "length %d", length)
		prev = next
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, glmParams().Validate())

	p := glmParams()
	p.TensorParallelDegree = 0
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidParams))
	assert.Contains(t, err.Error(), "tensorParallelDegree")
}

func TestTablePreservesOrder(t *testing.T) {
	points := glmParams().Table([]int{4096, 512})
	require.Len(t, points, 2)
	assert.Equal(t, 4096, points[0].ContextLength)
	assert.Equal(t, 512, points[1].ContextLength)
	assert.Greater(t, points[1].TheoreticalToks, points[0].TheoreticalToks)
}
