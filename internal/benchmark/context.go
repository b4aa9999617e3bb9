// internal/benchmark/context.go
package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/mwiater/tokbench/internal/logging"
	"github.com/mwiater/tokbench/internal/metrics"
	"github.com/mwiater/tokbench/internal/scenario"
	"github.com/mwiater/tokbench/internal/stream"
	"github.com/mwiater/tokbench/internal/throughput"
)

// ContextRow is one context length of a sweep.
type ContextRow struct {
	ContextLength   int     `json:"context_length"`
	KVCacheGB       float64 `json:"kv_cache_gb"`
	TTFTMillis      float64 `json:"ttft_ms"`
	DecodeToks      float64 `json:"decode_toks"`
	TheoreticalToks float64 `json:"theoretical_toks"`
	Ratio           float64 `json:"ratio"`
	Kept            int     `json:"kept"`
}

// ContextSweepResult holds the sweep rows and the cases behind them.
type ContextSweepResult struct {
	Rows  []ContextRow `json:"rows"`
	Cases []CaseResult `json:"cases"`
}

func (r ContextSweepResult) Header() []string {
	return []string{"context_length", "kv_cache_gb", "ttft_ms", "decode_toks", "theoretical_toks", "ratio", "ok"}
}

func (r ContextSweepResult) Records() [][]string {
	records := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		records = append(records, []string{
			strconv.Itoa(row.ContextLength),
			formatFloat(row.KVCacheGB, 3),
			formatFloat(row.TTFTMillis, 1),
			formatFloat(row.DecodeToks, 2),
			formatFloat(row.TheoreticalToks, 2),
			formatFloat(row.Ratio, 2),
			formatBool(row.Kept > 0),
		})
	}
	return records
}

// DecodeByContext maps each context length to its median decode rate.
func (r ContextSweepResult) DecodeByContext() map[int]float64 {
	out := make(map[int]float64, len(r.Rows))
	for _, row := range r.Rows {
		out[row.ContextLength] = row.DecodeToks
	}
	return out
}

// ContextSweep measures decode speed at each configured context length and
// sets it against the bandwidth model.
func (s *Suite) ContextSweep(ctx context.Context) (ContextSweepResult, error) {
	params := s.cfg.Throughput
	if err := params.Validate(); err != nil {
		return ContextSweepResult{}, err
	}

	var result ContextSweepResult
	for _, length := range s.cfg.SweepLengths() {
		kv := params.KVCacheGB(length)
		theory := params.TheoreticalTokensPerSecond(length)
		logging.LogEvent("context %d tokens: KV=%.2f GB, theoretical=%.1f tok/s", length, kv, theory)

		c, err := s.driver.RunCase(ctx, fmt.Sprintf("context %d", length), s.contextTrial(length))
		result.Cases = append(result.Cases, c)
		result.Rows = append(result.Rows, ContextRow{
			ContextLength:   length,
			KVCacheGB:       metrics.Round(kv, 3),
			TTFTMillis:      metrics.Round(c.MedianTTFT(), 1),
			DecodeToks:      metrics.Round(c.MedianDecode(), 2),
			TheoreticalToks: metrics.Round(theory, 2),
			Ratio:           metrics.Round(metrics.Ratio(c.MedianDecode(), theory), 2),
			Kept:            c.Kept,
		})
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *Suite) contextTrial(length int) Trial {
	req := s.baseRequest()
	req.MaxTokens = s.cfg.ContextSweepMaxTokens()
	req.History = scenario.ContextMessages(length)
	return func(ctx context.Context, _ int) stream.Metrics {
		return s.measurer.Measure(ctx, req, stream.Options{})
	}
}

// SpeedupRow compares a context length against a baseline decode rate.
type SpeedupRow struct {
	ContextLength int     `json:"context_length"`
	TTFTMillis    float64 `json:"ttft_ms"`
	CurrentToks   float64 `json:"current_toks"`
	BaselineToks  float64 `json:"baseline_toks"`
	Speedup       float64 `json:"speedup"`
	Kept          int     `json:"kept"`
}

// SpeedupResult is a context sweep expressed relative to a baseline.
type SpeedupResult struct {
	Rows  []SpeedupRow `json:"rows"`
	Cases []CaseResult `json:"cases"`
}

func (r SpeedupResult) Header() []string {
	return []string{"context_length", "ttft_ms", "current_toks", "baseline_toks", "speedup", "ok"}
}

func (r SpeedupResult) Records() [][]string {
	records := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		records = append(records, []string{
			strconv.Itoa(row.ContextLength),
			formatFloat(row.TTFTMillis, 1),
			formatFloat(row.CurrentToks, 2),
			formatFloat(row.BaselineToks, 2),
			formatFloat(row.Speedup, 2),
			formatBool(row.Kept > 0),
		})
	}
	return records
}

// Speedup sweeps the configured context lengths with the feature under test
// disabled and reports baseline/current for each length. Lengths missing
// from baseline report a speedup of 0.
func (s *Suite) Speedup(ctx context.Context, baseline map[int]float64) (SpeedupResult, error) {
	var result SpeedupResult
	for _, length := range s.cfg.SweepLengths() {
		c, err := s.driver.RunCase(ctx, fmt.Sprintf("context %d", length), s.contextTrial(length))
		result.Cases = append(result.Cases, c)
		current := metrics.Round(c.MedianDecode(), 2)
		with := baseline[length]
		result.Rows = append(result.Rows, SpeedupRow{
			ContextLength: length,
			TTFTMillis:    metrics.Round(c.MedianTTFT(), 1),
			CurrentToks:   current,
			BaselineToks:  with,
			Speedup:       metrics.Round(Speedup(with, current), 2),
			Kept:          c.Kept,
		})
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// LoadContextBaseline reads decode rates from a context sweep JSON file.
// Both a bare row array and a report document with a "results" field are
// accepted.
func LoadContextBaseline(path string) (map[int]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baseline %q: %w", path, err)
	}

	var rows []ContextRow
	if err := json.Unmarshal(data, &rows); err != nil {
		var doc struct {
			Results ContextSweepResult `json:"results"`
		}
		if derr := json.Unmarshal(data, &doc); derr != nil {
			return nil, fmt.Errorf("parse baseline %q: %w", path, derr)
		}
		rows = doc.Results.Rows
	}

	out := make(map[int]float64, len(rows))
	for _, row := range rows {
		out[row.ContextLength] = row.DecodeToks
	}
	return out, nil
}

// TheoryResult is the bandwidth model evaluated over a set of context lengths.
type TheoryResult struct {
	Params throughput.Params  `json:"params"`
	Points []throughput.Point `json:"points"`
}

func (r TheoryResult) Header() []string {
	return []string{"context_length", "kv_cache_gb", "theoretical_toks"}
}

func (r TheoryResult) Records() [][]string {
	records := make([][]string, 0, len(r.Points))
	for _, p := range r.Points {
		records = append(records, []string{
			strconv.Itoa(p.ContextLength),
			formatFloat(p.KVCacheGB, 3),
			formatFloat(p.TheoreticalToks, 2),
		})
	}
	return records
}

// Theory evaluates the throughput model without contacting the endpoint.
func Theory(params throughput.Params, lengths []int) (TheoryResult, error) {
	if err := params.Validate(); err != nil {
		return TheoryResult{}, err
	}
	return TheoryResult{Params: params, Points: params.Table(lengths)}, nil
}
