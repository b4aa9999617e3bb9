// internal/benchmark/agentic.go
package benchmark

import (
	"context"
	"strconv"

	"github.com/mwiater/tokbench/internal/conversation"
	"github.com/mwiater/tokbench/internal/logging"
	"github.com/mwiater/tokbench/internal/scenario"
)

// AgenticResult holds one pass through a scripted session.
type AgenticResult struct {
	Scenario string                    `json:"scenario"`
	Turns    []conversation.TurnResult `json:"turns"`
	Messages int                       `json:"messages"`
}

func (r AgenticResult) Header() []string {
	return []string{"turn", "approx_tokens", "ttft_ms", "decode_toks", "tool_calls", "tool_ok"}
}

func (r AgenticResult) Records() [][]string {
	records := make([][]string, 0, len(r.Turns))
	for _, t := range r.Turns {
		records = append(records, []string{
			strconv.Itoa(t.Turn),
			strconv.Itoa(t.ApproxPromptTokens),
			formatFloat(t.Metrics.TTFTMillis, 1),
			formatFloat(t.Metrics.DecodeTokensPerSecond, 2),
			strconv.Itoa(len(t.Metrics.ToolCalls)),
			formatBool(t.ExpectationMet),
		})
	}
	return records
}

// Passed counts turns whose outcome matched the script.
func (r AgenticResult) Passed() int {
	n := 0
	for _, t := range r.Turns {
		if t.ExpectationMet {
			n++
		}
	}
	return n
}

// Agentic plays def once, turn by turn, on a single growing conversation.
// Turns are not repeated because each depends on the replies before it.
func (s *Suite) Agentic(ctx context.Context, def scenario.Definition) (AgenticResult, error) {
	result := AgenticResult{Scenario: def.Name}
	if len(def.Turns) == 0 {
		return result, conversation.ErrEmptyScenario
	}

	base := s.baseRequest()
	base.Tools = def.Tools
	runner := conversation.NewRunner(s.measurer, base, def.SystemPrompt)

	turns, err := runner.RunAll(ctx, def.Turns, func(t conversation.TurnResult) {
		logging.LogEvent("turn %d (~%d tokens): TTFT=%.0fms, Decode=%.1f tok/s, tool calls=%d, ok=%t",
			t.Turn, t.ApproxPromptTokens, t.Metrics.TTFTMillis, t.Metrics.DecodeTokensPerSecond,
			len(t.Metrics.ToolCalls), t.ExpectationMet)
	})
	result.Turns = turns
	result.Messages = runner.State().Len()
	if verr := runner.State().Validate(); verr != nil {
		logging.LogWarn("conversation %s is inconsistent: %v", def.Name, verr)
	}
	return result, err
}
