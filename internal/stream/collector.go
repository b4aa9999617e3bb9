// internal/stream/collector.go
// Package stream turns a sequence of timestamped response events into latency
// and throughput metrics for a single request.
package stream

import (
	"strings"
	"time"

	"github.com/mwiater/tokbench/internal/providers"
)

// Outcome tags how a measured request ended.
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeEmptyStream      Outcome = "empty_stream"
	OutcomeTransportFailure Outcome = "transport_failure"
)

// Options controls what the collector treats as a generated token and what
// counts as success.
type Options struct {
	// ExpectToolCall makes success depend on at least one tool-call slot.
	ExpectToolCall bool
	// CountReasoning counts reasoning_content fragments as generated tokens.
	CountReasoning bool
}

// Metrics summarizes one streamed request.
type Metrics struct {
	TTFTMillis            float64           `json:"ttft_ms"`
	DecodeTokensPerSecond float64           `json:"decode_toks"`
	TokenCount            int               `json:"token_count"`
	TotalMillis           float64           `json:"total_ms"`
	ToolCalls             []ToolCallRequest `json:"tool_calls,omitempty"`
	Content               string            `json:"content"`
	Reasoning             string            `json:"-"`
	ReasoningChars        int               `json:"reasoning_chars"`
	Succeeded             bool              `json:"succeeded"`
	Outcome               Outcome           `json:"outcome"`
	Error                 string            `json:"error,omitempty"`
}

// ReasoningTokens approximates the reasoning length at four characters per token.
func (m Metrics) ReasoningTokens() int {
	return m.ReasoningChars / 4
}

// Failure builds the metrics reported when the transport could not complete.
func Failure(err error) Metrics {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Metrics{
		Content:   msg,
		Succeeded: false,
		Outcome:   OutcomeTransportFailure,
		Error:     msg,
	}
}

// Collector accumulates events for one request. It is not safe for concurrent use.
type Collector struct {
	opts      Options
	start     time.Time
	first     time.Time
	last      time.Time
	tokens    int
	content   strings.Builder
	reasoning strings.Builder
	calls     *Accumulator
}

// NewCollector starts a collector whose TTFT is measured from start.
func NewCollector(start time.Time, opts Options) *Collector {
	return &Collector{opts: opts, start: start, calls: NewAccumulator()}
}

// Observe records one event. Non-qualifying events still feed the tool-call
// accumulator but never move the timing markers.
func (c *Collector) Observe(ev providers.StreamEvent) {
	qualifies := false
	switch ev.Kind {
	case providers.EventContent:
		if ev.Text != "" {
			c.content.WriteString(ev.Text)
			qualifies = true
		}
	case providers.EventReasoning:
		if ev.Text != "" {
			c.reasoning.WriteString(ev.Text)
			qualifies = c.opts.CountReasoning
		}
	case providers.EventToolCall:
		c.calls.Add(ev.ToolCall)
		qualifies = ev.ToolCall.Name != "" || ev.ToolCall.Arguments != ""
	}
	if !qualifies {
		return
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	if c.tokens == 0 {
		if at.Before(c.start) {
			at = c.start
		}
		c.first = at
	} else if at.Before(c.last) {
		at = c.last
	}
	c.last = at
	c.tokens++
}

// Finish computes the final metrics; end marks when the response was fully read.
func (c *Collector) Finish(end time.Time) Metrics {
	m := Metrics{
		Content:        c.content.String(),
		Reasoning:      c.reasoning.String(),
		ReasoningChars: c.reasoning.Len(),
		ToolCalls:      c.calls.Calls(),
		TokenCount:     c.tokens,
	}
	if end.After(c.start) {
		m.TotalMillis = millis(end.Sub(c.start))
	}

	if c.tokens == 0 {
		m.Outcome = OutcomeEmptyStream
		return m
	}

	m.Outcome = OutcomeOK
	m.TTFTMillis = millis(c.first.Sub(c.start))
	if span := c.last.Sub(c.first).Seconds(); c.tokens > 1 && span > 0 {
		m.DecodeTokensPerSecond = float64(c.tokens-1) / span
	}
	if c.opts.ExpectToolCall {
		m.Succeeded = c.calls.Len() > 0
	} else {
		m.Succeeded = true
	}
	return m
}

func millis(d time.Duration) float64 {
	return d.Seconds() * 1000
}
