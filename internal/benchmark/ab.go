// internal/benchmark/ab.go
package benchmark

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/tokbench/internal/appconfig"
	"github.com/mwiater/tokbench/internal/logging"
	"github.com/mwiater/tokbench/internal/metrics"
	"github.com/mwiater/tokbench/internal/providers"
	"github.com/mwiater/tokbench/internal/stream"
)

// ABMode selects which arms of an A/B comparison run.
type ABMode string

const (
	ABOnlyA ABMode = "a"
	ABOnlyB ABMode = "b"
	ABBoth  ABMode = "both"
)

const (
	abMaxTokens    = 256
	abWarmupPrompt = "Hello"
)

// ParseABMode accepts a, b or both. "without" and "with" are aliases for a
// and b. An empty string selects both.
func ParseABMode(s string) (ABMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return ABBoth, nil
	case "a", "without":
		return ABOnlyA, nil
	case "b", "with":
		return ABOnlyB, nil
	default:
		return "", fmt.Errorf("unknown A/B mode %q (want a, b or both)", s)
	}
}

// ABArm is the measurement of one variant over the prompt set.
type ABArm struct {
	Name     string          `json:"name"`
	Endpoint string          `json:"endpoint"`
	Model    string          `json:"model"`
	Cases    []CaseResult    `json:"cases"`
	TTFT     metrics.Summary `json:"ttft_ms"`
	Decode   metrics.Summary `json:"decode_toks"`
}

// ABResult holds whichever arms ran and, when both did, their deltas.
type ABResult struct {
	Mode        ABMode `json:"mode"`
	A           *ABArm `json:"a,omitempty"`
	B           *ABArm `json:"b,omitempty"`
	DecodeDelta *Delta `json:"decode_delta,omitempty"`
	TTFTDelta   *Delta `json:"ttft_delta,omitempty"`
}

func (r ABResult) Header() []string {
	return []string{"arm", "case", "ttft_ms", "decode_toks", "ok", "pct"}
}

func (r ABResult) Records() [][]string {
	var records [][]string
	for _, arm := range []*ABArm{r.A, r.B} {
		if arm == nil {
			continue
		}
		for _, c := range arm.Cases {
			records = append(records, []string{
				arm.Name, c.Label,
				formatFloat(c.MedianTTFT(), 1), formatFloat(c.MedianDecode(), 2),
				formatBool(c.Kept > 0), "",
			})
		}
		records = append(records, []string{
			arm.Name, "all",
			formatFloat(arm.TTFT.Median, 1), formatFloat(arm.Decode.Median, 2),
			formatBool(arm.Decode.Count > 0), "",
		})
	}
	if r.DecodeDelta != nil && r.TTFTDelta != nil {
		records = append(records, []string{
			"B-A", "all",
			formatFloat(r.TTFTDelta.Diff, 1), formatFloat(r.DecodeDelta.Diff, 2),
			formatBool(r.DecodeDelta.HasPct()), r.DecodeDelta.PctString(),
		})
	}
	return records
}

// AB replays prompts against the configured variants. Each arm sends one
// unmeasured warmup request first. With ABBoth a cooldown separates the arms
// and the result carries B-A deltas over the arm medians.
func (s *Suite) AB(ctx context.Context, mode ABMode, prompts []string) (ABResult, error) {
	result := ABResult{Mode: mode}
	variants := s.cfg.Variants

	if mode == ABOnlyA || mode == ABBoth {
		arm, err := s.runArm(ctx, labelOr(variants.A.Name, "A"), variants.A, prompts)
		result.A = &arm
		if err != nil {
			return result, err
		}
	}
	if mode == ABBoth {
		if err := s.driver.Cooldown(ctx); err != nil {
			return result, err
		}
	}
	if mode == ABOnlyB || mode == ABBoth {
		arm, err := s.runArm(ctx, labelOr(variants.B.Name, "B"), variants.B, prompts)
		result.B = &arm
		if err != nil {
			return result, err
		}
	}

	if result.A != nil && result.B != nil {
		decode := Compare(result.A.Decode.Median, result.B.Decode.Median)
		ttft := Compare(result.A.TTFT.Median, result.B.TTFT.Median)
		result.DecodeDelta, result.TTFTDelta = &decode, &ttft
		logging.LogEvent("A/B decode: A=%.1f tok/s, B=%.1f tok/s, diff=%+.1f tok/s (%s)",
			decode.A, decode.B, decode.Diff, decode.PctString())
	}
	return result, nil
}

func (s *Suite) runArm(ctx context.Context, name string, v appconfig.Variant, prompts []string) (ABArm, error) {
	endpoint := s.cfg.VariantEndpoint(v)
	arm := ABArm{Name: name, Endpoint: endpoint.Identifier(), Model: endpoint.Model}

	temperature := 0.0
	base := providers.StreamRequest{
		Endpoint:    endpoint,
		Model:       endpoint.Model,
		MaxTokens:   abMaxTokens,
		Temperature: &temperature,
		ExtraBody:   v.ExtraBody,
	}

	warmup := base
	warmup.History = []providers.ChatMessage{{Role: providers.RoleUser, Content: abWarmupPrompt}}
	if m := s.measurer.Measure(ctx, warmup, stream.Options{}); m.Outcome != stream.OutcomeOK {
		logging.LogWarn("%s warmup did not produce tokens: %s %s", name, m.Outcome, m.Error)
	}

	var ttfts, decodes []float64
	for i, prompt := range prompts {
		req := base
		req.History = []providers.ChatMessage{{Role: providers.RoleUser, Content: prompt}}
		c, err := s.driver.RunCase(ctx, fmt.Sprintf("prompt %d", i+1), func(ctx context.Context, _ int) stream.Metrics {
			return s.measurer.Measure(ctx, req, stream.Options{})
		})
		arm.Cases = append(arm.Cases, c)
		for _, m := range c.KeptTrials() {
			ttfts = append(ttfts, m.TTFTMillis)
			decodes = append(decodes, m.DecodeTokensPerSecond)
		}
		if err != nil {
			arm.TTFT, arm.Decode = metrics.Summarize(ttfts), metrics.Summarize(decodes)
			return arm, err
		}
	}
	arm.TTFT, arm.Decode = metrics.Summarize(ttfts), metrics.Summarize(decodes)
	return arm, nil
}

func labelOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

// String renders the mode for flags and logs.
func (m ABMode) String() string {
	return string(m)
}
