// internal/conversation/runner.go
package conversation

import (
	"context"
	"errors"

	"github.com/mwiater/tokbench/internal/providers"
	"github.com/mwiater/tokbench/internal/stream"
)

// ErrEmptyScenario is returned when a scenario defines no turns.
var ErrEmptyScenario = errors.New("conversation: scenario has no turns")

// Turn is one scripted user message and the outcome it should provoke.
type Turn struct {
	User           string `json:"user"`
	ExpectToolCall bool   `json:"expectToolCall"`
	ToolResult     string `json:"toolResult,omitempty"`
}

// TurnResult reports a completed turn. Turn numbers start at 1.
type TurnResult struct {
	Turn               int            `json:"turn"`
	ApproxPromptTokens int            `json:"approx_tokens"`
	Metrics            stream.Metrics `json:"metrics"`
	ExpectationMet     bool           `json:"tool_ok"`
}

// Runner executes turns against one conversation.
type Runner struct {
	measurer *stream.Measurer
	base     providers.StreamRequest
	state    *State
}

// NewRunner binds a measurer and request template to a fresh conversation.
// Tools in base are only sent on turns that expect a tool call.
func NewRunner(measurer *stream.Measurer, base providers.StreamRequest, systemPrompt string) *Runner {
	return &Runner{measurer: measurer, base: base, state: New(systemPrompt)}
}

// State exposes the conversation history.
func (r *Runner) State() *State {
	return r.state
}

// Run sends the user message for turn and records the model's reply.
func (r *Runner) Run(ctx context.Context, number int, turn Turn) TurnResult {
	r.state.AppendUser(turn.User)
	approx := r.state.ApproxPromptTokens()

	req := r.base
	req.History = r.state.Messages()
	if turn.ExpectToolCall && len(req.Tools) > 0 {
		if req.ToolChoice == "" {
			req.ToolChoice = "auto"
		}
	} else {
		req.Tools = nil
		req.ToolChoice = ""
	}

	m := r.measurer.Measure(ctx, req, stream.Options{ExpectToolCall: turn.ExpectToolCall})

	if len(m.ToolCalls) > 0 {
		r.state.ResolveToolCalls(number, m.ToolCalls, turn.ToolResult)
	} else {
		r.state.ResolveContent(m.Content)
	}

	return TurnResult{
		Turn:               number,
		ApproxPromptTokens: approx,
		Metrics:            m,
		ExpectationMet:     m.Succeeded && turn.ExpectToolCall == (len(m.ToolCalls) > 0),
	}
}

// RunAll plays turns in order. onTurn, if set, is called after each turn.
// Cancellation is checked between turns; completed results are returned with
// the context error.
func (r *Runner) RunAll(ctx context.Context, turns []Turn, onTurn func(TurnResult)) ([]TurnResult, error) {
	if len(turns) == 0 {
		return nil, ErrEmptyScenario
	}
	results := make([]TurnResult, 0, len(turns))
	for i, turn := range turns {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := r.Run(ctx, i+1, turn)
		results = append(results, res)
		if onTurn != nil {
			onTurn(res)
		}
	}
	return results, nil
}
