// internal/benchmark/compare.go
package benchmark

import (
	"encoding/json"
	"fmt"
	"math"
)

// Delta compares variant B against baseline A.
type Delta struct {
	A    float64 `json:"a"`
	B    float64 `json:"b"`
	Diff float64 `json:"diff"`
	// Pct is NaN when A is zero.
	Pct float64 `json:"pct"`
}

// Compare returns B-A and the change relative to A in percent.
func Compare(a, b float64) Delta {
	d := Delta{A: a, B: b, Diff: b - a, Pct: math.NaN()}
	if a != 0 {
		d.Pct = d.Diff / a * 100
	}
	return d
}

// HasPct reports whether the percentage is defined.
func (d Delta) HasPct() bool {
	return !math.IsNaN(d.Pct)
}

// PctString formats the percentage with a sign, or "n/a" for a zero baseline.
func (d Delta) PctString() string {
	if !d.HasPct() {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", d.Pct)
}

// MarshalJSON encodes an undefined percentage as null.
func (d Delta) MarshalJSON() ([]byte, error) {
	var pct *float64
	if d.HasPct() {
		pct = &d.Pct
	}
	return json.Marshal(struct {
		A    float64  `json:"a"`
		B    float64  `json:"b"`
		Diff float64  `json:"diff"`
		Pct  *float64 `json:"pct"`
	}{d.A, d.B, d.Diff, pct})
}

// Speedup returns with/without, or 0 when without is not positive.
func Speedup(with, without float64) float64 {
	if without <= 0 {
		return 0
	}
	return with / without
}
