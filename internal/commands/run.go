// internal/commands/run.go
package tokbench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwiater/tokbench/internal/appconfig"
	"github.com/mwiater/tokbench/internal/benchmark"
	"github.com/mwiater/tokbench/internal/history"
	"github.com/mwiater/tokbench/internal/logging"
	"github.com/mwiater/tokbench/internal/providerfactory"
	"github.com/mwiater/tokbench/internal/report"
	"github.com/spf13/cobra"
)

// outcome is what a scenario command hands to publish.
type outcome struct {
	name    string
	file    string // result file stem, name when empty
	title   string
	table   report.Table
	results any
	cases   []history.Case
}

// loadedConfig returns the validated configuration for commands that talk to
// the endpoint.
func loadedConfig() (*appconfig.Config, error) {
	cfg := GetConfig()
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runScenario builds a suite, runs fn, and publishes whatever it produced.
// An interrupted run still publishes its partial results before returning
// the interruption.
func runScenario(cmd *cobra.Command, fn func(ctx context.Context, suite *benchmark.Suite) (outcome, error)) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	transport, err := providerfactory.NewTransport(cfg)
	if err != nil {
		return err
	}
	defer transport.Close()

	suite, err := benchmark.NewSuite(cfg, transport)
	if err != nil {
		return err
	}

	started := time.Now()
	out, runErr := fn(cmdContext(cmd), suite)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if out.table == nil {
		return runErr
	}
	if err := publish(cmd, cfg, started, out); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("%s interrupted: %w", out.name, runErr)
	}
	return nil
}

// publish renders the table, writes CSV and JSON results and records the run
// in the history database. History failures are logged, not returned.
func publish(cmd *cobra.Command, cfg *appconfig.Config, started time.Time, out outcome) error {
	w := cmd.OutOrStdout()
	report.Render(w, out.title, out.table)

	run := history.NewRun(out.name, cfg.Endpoint.Identifier(), cfg.Endpoint.Model, started)
	run.Cases = out.cases

	doc := report.Document{
		RunID:     run.ID,
		Scenario:  out.name,
		Endpoint:  run.Endpoint,
		Model:     run.Model,
		StartedAt: run.StartedAt,
		Results:   out.results,
	}
	stem := out.file
	if stem == "" {
		stem = out.name
	}
	paths, err := report.NewSink(cfg.OutputPath()).Write(benchmark.Slugify(stem), doc, out.table)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Results written to %s and %s\n", paths.CSV, paths.JSON)

	if err := saveHistory(context.WithoutCancel(cmdContext(cmd)), cfg, run); err != nil {
		logging.LogWarn("history not recorded: %v", err)
	}
	return nil
}

func saveHistory(ctx context.Context, cfg *appconfig.Config, run history.Run) error {
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(ctx, run)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
