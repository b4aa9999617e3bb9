package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{7}, 7},
		{"odd", []float64{9, 1, 5}, 5},
		{"even averages middle pair", []float64{4, 1, 3, 2}, 2.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Median(tc.values))
		})
	}
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Median(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 8, s.Count)
	assert.Equal(t, 4.5, s.Median)
	assert.Equal(t, 5.0, s.Mean)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.InDelta(t, math.Sqrt(32.0/7), s.StdDev, 1e-9)

	assert.Equal(t, Summary{}, Summarize(nil))
	assert.Zero(t, Summarize([]float64{3}).StdDev)
}

func TestRatioAndRound(t *testing.T) {
	assert.Equal(t, 0.5, Ratio(1, 2))
	assert.Zero(t, Ratio(1, 0))
	assert.Zero(t, Ratio(0, 2))
	assert.Equal(t, 33.51, Round(33.5051, 2))
	assert.True(t, math.IsNaN(Round(math.NaN(), 1)))
}
