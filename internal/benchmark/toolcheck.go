// internal/benchmark/toolcheck.go
package benchmark

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/tokbench/internal/providers"
	"github.com/mwiater/tokbench/internal/scenario"
	"github.com/mwiater/tokbench/internal/stream"
	"github.com/mwiater/tokbench/internal/util"
)

// CheckStatus classifies a tool-calling smoke test.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	// StatusWarn means the model answered in text instead of calling a tool.
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

const (
	toolCheckMaxTokens = 512
	previewRunes       = 200
)

// CheckResult is the outcome of one smoke test.
type CheckResult struct {
	Name      string                   `json:"name"`
	Stream    bool                     `json:"stream"`
	Status    CheckStatus              `json:"status"`
	ToolCalls []stream.ToolCallRequest `json:"tool_calls,omitempty"`
	Preview   string                   `json:"preview,omitempty"`
	Metrics   stream.Metrics           `json:"metrics"`
}

// ToolCheckResult lists every smoke test in execution order.
type ToolCheckResult struct {
	Checks []CheckResult `json:"checks"`
}

func (r ToolCheckResult) Header() []string {
	return []string{"check", "stream", "status", "ttft_ms", "tool_calls", "preview"}
}

func (r ToolCheckResult) Records() [][]string {
	records := make([][]string, 0, len(r.Checks))
	for _, c := range r.Checks {
		records = append(records, []string{
			c.Name,
			formatBool(c.Stream),
			string(c.Status),
			formatFloat(c.Metrics.TTFTMillis, 1),
			FormatToolCalls(c.ToolCalls),
			c.Preview,
		})
	}
	return records
}

// Count returns how many checks ended with status.
func (r ToolCheckResult) Count(status CheckStatus) int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == status {
			n++
		}
	}
	return n
}

// ToolCheck runs each smoke test once.
func (s *Suite) ToolCheck(ctx context.Context, checks []scenario.ToolCheck, tools []providers.ToolDefinition) (ToolCheckResult, error) {
	var result ToolCheckResult
	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		req := s.baseRequest()
		req.MaxTokens = toolCheckMaxTokens
		req.Temperature = nil
		req.History = []providers.ChatMessage{{Role: providers.RoleUser, Content: check.Prompt}}
		req.Tools = tools
		req.ToolChoice = "auto"
		req.DisableStreaming = !check.Stream

		m := s.measurer.Measure(ctx, req, stream.Options{ExpectToolCall: true})
		result.Checks = append(result.Checks, classifyCheck(check, m))
	}
	return result, nil
}

func classifyCheck(check scenario.ToolCheck, m stream.Metrics) CheckResult {
	res := CheckResult{Name: check.Name, Stream: check.Stream, Metrics: m, ToolCalls: m.ToolCalls}
	switch {
	case m.Outcome == stream.OutcomeTransportFailure:
		res.Status = StatusFail
		res.Preview = util.Preview(m.Error, previewRunes)
	case len(m.ToolCalls) > 0:
		res.Status = StatusPass
	case strings.TrimSpace(m.Content) != "":
		res.Status = StatusWarn
		res.Preview = util.Preview(m.Content, previewRunes)
	default:
		res.Status = StatusFail
	}
	return res
}

// FormatToolCalls renders calls as name(arguments) separated by "; ".
func FormatToolCalls(calls []stream.ToolCallRequest) string {
	parts := make([]string, 0, len(calls))
	for _, call := range calls {
		parts = append(parts, fmt.Sprintf("%s(%s)", call.Name, call.Arguments))
	}
	return strings.Join(parts, "; ")
}
