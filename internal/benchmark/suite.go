// internal/benchmark/suite.go
// Package benchmark drives the measurement scenarios: it repeats trials,
// reduces them by median, and shapes the results into report tables.
package benchmark

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mwiater/tokbench/internal/appconfig"
	"github.com/mwiater/tokbench/internal/metrics"
	"github.com/mwiater/tokbench/internal/providers"
	"github.com/mwiater/tokbench/internal/stream"
)

// Suite runs every scenario against one configuration and transport.
type Suite struct {
	cfg      *appconfig.Config
	measurer *stream.Measurer
	driver   *Driver
}

// NewSuite wires a transport and the driver options derived from cfg.
func NewSuite(cfg *appconfig.Config, transport providers.Transport) (*Suite, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to benchmark suite")
	}
	if transport == nil {
		return nil, fmt.Errorf("nil transport provided to benchmark suite")
	}
	return &Suite{
		cfg:      cfg,
		measurer: stream.NewMeasurer(transport),
		driver: NewDriver(DriverOptions{
			Repeats:       cfg.RepeatCount(),
			Cooldown:      cfg.Cooldown(),
			TrialInterval: cfg.TrialInterval(),
		}),
	}, nil
}

// WithMeasurer replaces the measurer, typically to install a fixed clock.
func (s *Suite) WithMeasurer(m *stream.Measurer) *Suite {
	clone := *s
	clone.measurer = m
	return &clone
}

// Driver exposes the trial driver.
func (s *Suite) Driver() *Driver {
	return s.driver
}

func (s *Suite) baseRequest() providers.StreamRequest {
	temperature := s.cfg.Temperature()
	return providers.StreamRequest{
		Endpoint:    s.cfg.Endpoint,
		Model:       s.cfg.Endpoint.Model,
		MaxTokens:   s.cfg.MaxTokens(),
		Temperature: &temperature,
	}
}

// Slugify converts a string into a "slug" format,
// including replacing colons (:) with underscores (_).
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ":", "_")
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = repeatedDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-_")

	return s
}

var (
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9_]+`)
	repeatedDashes = regexp.MustCompile(`-+`)
)

func formatFloat(v float64, places int) string {
	return strconv.FormatFloat(metrics.Round(v, places), 'f', places, 64)
}

func formatBool(v bool) string {
	return strconv.FormatBool(v)
}
