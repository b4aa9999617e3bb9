// internal/benchmark/thinking.go
package benchmark

import (
	"context"
	"strconv"

	"github.com/mwiater/tokbench/internal/appconfig"
	"github.com/mwiater/tokbench/internal/metrics"
	"github.com/mwiater/tokbench/internal/providers"
	"github.com/mwiater/tokbench/internal/scenario"
	"github.com/mwiater/tokbench/internal/stream"
)

// ThinkingRow summarizes one reasoning mode.
type ThinkingRow struct {
	Mode            string  `json:"mode"`
	TTFTMillis      float64 `json:"ttft_ms"`
	TotalMillis     float64 `json:"total_ms"`
	DecodeToks      float64 `json:"decode_toks"`
	ToolCalls       int     `json:"tool_calls"`
	Correct         bool    `json:"correct"`
	ReasoningTokens int     `json:"reasoning_tokens"`
}

// ThinkingResult compares reasoning modes on the same tool-calling task.
type ThinkingResult struct {
	Rows  []ThinkingRow `json:"rows"`
	Cases []CaseResult  `json:"cases"`
}

func (r ThinkingResult) Header() []string {
	return []string{"mode", "ttft_ms", "total_ms", "decode_toks", "tool_calls", "correct", "reasoning_tokens"}
}

func (r ThinkingResult) Records() [][]string {
	records := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		records = append(records, []string{
			row.Mode,
			formatFloat(row.TTFTMillis, 1),
			formatFloat(row.TotalMillis, 1),
			formatFloat(row.DecodeToks, 2),
			strconv.Itoa(row.ToolCalls),
			formatBool(row.Correct),
			strconv.Itoa(row.ReasoningTokens),
		})
	}
	return records
}

// Thinking sends the task once per repeat under each mode. Reasoning deltas
// count as tokens.
func (s *Suite) Thinking(ctx context.Context, modes []appconfig.Mode, task scenario.ToolTask) (ThinkingResult, error) {
	var result ThinkingResult
	for i, mode := range modes {
		if i > 0 {
			if err := s.driver.Cooldown(ctx); err != nil {
				return result, err
			}
		}
		c, err := s.driver.RunCase(ctx, mode.Name, s.thinkingTrial(mode, task))
		result.Cases = append(result.Cases, c)
		result.Rows = append(result.Rows, thinkingRow(mode.Name, c, task))
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *Suite) thinkingTrial(mode appconfig.Mode, task scenario.ToolTask) Trial {
	req := s.baseRequest()
	req.History = []providers.ChatMessage{
		{Role: providers.RoleSystem, Content: task.SystemPrompt},
		{Role: providers.RoleUser, Content: task.Prompt},
	}
	req.Tools = task.Tools
	req.ToolChoice = "auto"
	req.ExtraBody = mode.ExtraBody
	opts := stream.Options{ExpectToolCall: true, CountReasoning: true}
	return func(ctx context.Context, _ int) stream.Metrics {
		return s.measurer.Measure(ctx, req, opts)
	}
}

// thinkingRow reduces a case by median. Correct requires every kept trial
// to make the expected call.
func thinkingRow(mode string, c CaseResult, task scenario.ToolTask) ThinkingRow {
	kept := c.KeptTrials()
	row := ThinkingRow{
		Mode:       mode,
		TTFTMillis: metrics.Round(c.MedianTTFT(), 1),
		DecodeToks: metrics.Round(c.MedianDecode(), 2),
		Correct:    len(kept) > 0,
	}
	var totals, reasoning []float64
	for _, m := range kept {
		totals = append(totals, m.TotalMillis)
		reasoning = append(reasoning, float64(m.ReasoningTokens()))
		row.ToolCalls = max(row.ToolCalls, len(m.ToolCalls))
		if !task.Correct(m.ToolCalls) {
			row.Correct = false
		}
	}
	row.TotalMillis = metrics.Round(metrics.Median(totals), 1)
	row.ReasoningTokens = int(metrics.Median(reasoning))
	return row
}
