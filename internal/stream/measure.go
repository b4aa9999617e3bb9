// internal/stream/measure.go
package stream

import (
	"context"
	"time"

	"github.com/mwiater/tokbench/internal/logging"
	"github.com/mwiater/tokbench/internal/providers"
	"github.com/sourcegraph/conc/panics"
)

// Measurer issues requests through a transport and converts each response
// into Metrics. Transport errors and panics become failure metrics.
type Measurer struct {
	transport providers.Transport
	now       func() time.Time
}

// NewMeasurer wraps transport with the wall clock.
func NewMeasurer(transport providers.Transport) *Measurer {
	return &Measurer{transport: transport, now: time.Now}
}

// WithClock returns a copy of m that reads time from now.
func (m *Measurer) WithClock(now func() time.Time) *Measurer {
	clone := *m
	clone.now = now
	return &clone
}

// Measure sends req and collects its events. It never returns an error.
func (m *Measurer) Measure(ctx context.Context, req providers.StreamRequest, opts Options) Metrics {
	start := m.now()
	collector := NewCollector(start, opts)

	var streamErr error
	var catcher panics.Catcher
	catcher.Try(func() {
		streamErr = m.transport.Stream(ctx, req, func(ev providers.StreamEvent) error {
			collector.Observe(ev)
			return nil
		})
	})
	if recovered := catcher.Recovered(); recovered != nil {
		streamErr = recovered.AsError()
	}
	if streamErr != nil {
		logging.LogWarn("request to %s failed: %v", req.Endpoint.Identifier(), streamErr)
		return Failure(streamErr)
	}
	return collector.Finish(m.now())
}
