// internal/throughput/throughput.go
// Package throughput implements the closed-form memory-bandwidth model used to
// estimate decode throughput for a tensor-parallel deployment.
package throughput

import (
	"errors"
	"fmt"
)

// GiB is the divisor used to express byte counts in GB.
const GiB = float64(1 << 30)

// ErrInvalidParams is returned by Validate when a model parameter is not positive.
var ErrInvalidParams = errors.New("throughput: invalid model parameters")

// Params describes the model architecture and the hardware it runs on.
type Params struct {
	LayerCount               int     `json:"layerCount" mapstructure:"layerCount"`
	KVHeadCount              int     `json:"kvHeadCount" mapstructure:"kvHeadCount"`
	HeadDim                  int     `json:"headDim" mapstructure:"headDim"`
	KVDtypeBytes             int     `json:"kvDtypeBytes" mapstructure:"kvDtypeBytes"`
	ActiveWeightBytesPerNode float64 `json:"activeWeightBytesPerNode" mapstructure:"activeWeightBytesPerNode"`
	PerNodeBandwidthGBps     float64 `json:"perNodeBandwidthGBps" mapstructure:"perNodeBandwidthGBps"`
	TensorParallelDegree     int     `json:"tensorParallelDegree" mapstructure:"tensorParallelDegree"`
}

// Validate reports the first non-positive field.
func (p Params) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"layerCount", float64(p.LayerCount)},
		{"kvHeadCount", float64(p.KVHeadCount)},
		{"headDim", float64(p.HeadDim)},
		{"kvDtypeBytes", float64(p.KVDtypeBytes)},
		{"activeWeightBytesPerNode", p.ActiveWeightBytesPerNode},
		{"perNodeBandwidthGBps", p.PerNodeBandwidthGBps},
		{"tensorParallelDegree", float64(p.TensorParallelDegree)},
	}
	for _, c := range checks {
		if c.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidParams, c.name, c.value)
		}
	}
	return nil
}

// KVCacheBytes returns the key/value cache footprint for a context of length tokens.
func (p Params) KVCacheBytes(length int) float64 {
	if length <= 0 {
		return 0
	}
	perToken := 2 * float64(p.LayerCount) * float64(p.KVHeadCount) * float64(p.HeadDim) * float64(p.KVDtypeBytes)
	return perToken * float64(length)
}

// KVCacheGB returns KVCacheBytes expressed in GB (2^30 bytes).
func (p Params) KVCacheGB(length int) float64 {
	return p.KVCacheBytes(length) / GiB
}

// ActiveWeightGB returns the per-node active weight footprint in GB.
func (p Params) ActiveWeightGB() float64 {
	return p.ActiveWeightBytesPerNode / GiB
}

// TheoreticalTokensPerSecond returns the bandwidth-bound decode rate at the
// given context length. Every decoded token reads the active weights and the
// whole KV cache once from each node.
func (p Params) TheoreticalTokensPerSecond(length int) float64 {
	denominator := p.ActiveWeightGB() + p.KVCacheGB(length)
	if denominator <= 0 {
		return 0
	}
	return p.PerNodeBandwidthGBps * float64(p.TensorParallelDegree) / denominator
}

// Point is one row of the model evaluated at a context length.
type Point struct {
	ContextLength   int     `json:"context_length"`
	KVCacheGB       float64 `json:"kv_cache_gb"`
	TheoreticalToks float64 `json:"theoretical_toks"`
}

// Table evaluates the model at each context length, preserving order.
func (p Params) Table(lengths []int) []Point {
	points := make([]Point, 0, len(lengths))
	for _, length := range lengths {
		points = append(points, Point{
			ContextLength:   length,
			KVCacheGB:       p.KVCacheGB(length),
			TheoreticalToks: p.TheoreticalTokensPerSecond(length),
		})
	}
	return points
}
