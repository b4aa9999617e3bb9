// internal/benchmark/driver.go
package benchmark

import (
	"context"
	"time"

	"github.com/mwiater/tokbench/internal/logging"
	"github.com/mwiater/tokbench/internal/metrics"
	"github.com/mwiater/tokbench/internal/stream"
	"golang.org/x/time/rate"
)

// DriverOptions controls how many trials a case runs and how they are spaced.
type DriverOptions struct {
	Repeats       int
	Cooldown      time.Duration
	TrialInterval time.Duration
}

// Trial issues one request and returns its measurement. repeat starts at 1.
type Trial func(ctx context.Context, repeat int) stream.Metrics

// CaseResult aggregates the trials of one benchmark case.
type CaseResult struct {
	Label  string           `json:"label"`
	Trials []stream.Metrics `json:"trials"`
	Kept   int              `json:"kept"`
	TTFT   metrics.Summary  `json:"ttft_ms"`
	Decode metrics.Summary  `json:"decode_toks"`
}

// MedianTTFT is the median time to first token over kept trials, or 0.
func (c CaseResult) MedianTTFT() float64 { return c.TTFT.Median }

// MedianDecode is the median decode rate over kept trials, or 0.
func (c CaseResult) MedianDecode() float64 { return c.Decode.Median }

// KeptTrials returns the trials that produced at least one token.
func (c CaseResult) KeptTrials() []stream.Metrics {
	var kept []stream.Metrics
	for _, m := range c.Trials {
		if m.TTFTMillis > 0 {
			kept = append(kept, m)
		}
	}
	return kept
}

// Driver runs benchmark cases one trial at a time.
type Driver struct {
	opts    DriverOptions
	limiter *rate.Limiter
}

// NewDriver returns a Driver. Repeats below 1 are treated as 1.
func NewDriver(opts DriverOptions) *Driver {
	if opts.Repeats < 1 {
		opts.Repeats = 1
	}
	d := &Driver{opts: opts}
	if opts.TrialInterval > 0 {
		d.limiter = rate.NewLimiter(rate.Every(opts.TrialInterval), 1)
	}
	return d
}

// Repeats reports the number of trials per case.
func (d *Driver) Repeats() int {
	return d.opts.Repeats
}

// RunCase runs the configured number of trials sequentially and reduces the
// trials that observed a token by median. A failed trial is recorded and
// skipped; only context cancellation stops the case early.
func (d *Driver) RunCase(ctx context.Context, label string, trial Trial) (CaseResult, error) {
	result := CaseResult{Label: label}
	var ttfts, decodes []float64

	for i := 1; i <= d.opts.Repeats; i++ {
		if err := d.wait(ctx); err != nil {
			return result, err
		}
		m := trial(ctx, i)
		result.Trials = append(result.Trials, m)

		if m.TTFTMillis <= 0 {
			logging.LogEvent("%s round %d/%d: FAILED (%s) %s", label, i, d.opts.Repeats, m.Outcome, m.Error)
			continue
		}
		ttfts = append(ttfts, m.TTFTMillis)
		decodes = append(decodes, m.DecodeTokensPerSecond)
		logging.LogEvent("%s round %d/%d: TTFT=%.0fms, Decode=%.1f tok/s (%d tokens, median so far %.1f)",
			label, i, d.opts.Repeats, m.TTFTMillis, m.DecodeTokensPerSecond, m.TokenCount, metrics.Median(decodes))
	}

	result.Kept = len(ttfts)
	result.TTFT = metrics.Summarize(ttfts)
	result.Decode = metrics.Summarize(decodes)
	return result, ctx.Err()
}

// Cooldown pauses between benchmark phases. It returns early with the
// context's error if ctx is done.
func (d *Driver) Cooldown(ctx context.Context) error {
	if d.opts.Cooldown <= 0 {
		return ctx.Err()
	}
	logging.LogEvent("cooling down for %s", d.opts.Cooldown)
	timer := time.NewTimer(d.opts.Cooldown)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *Driver) wait(ctx context.Context) error {
	if d.limiter == nil {
		return ctx.Err()
	}
	return d.limiter.Wait(ctx)
}
