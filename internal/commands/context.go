// internal/commands/context.go
package tokbench

import (
	"context"
	"fmt"

	"github.com/mwiater/tokbench/internal/benchmark"
	"github.com/mwiater/tokbench/internal/history"
	"github.com/spf13/cobra"
)

var speedupBaseline string

// contextCmd sweeps context lengths and compares decode speed with the bandwidth model.
var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Measure TTFT and decode rate across context lengths",
	Long: `Sends a filler prompt sized to each configured context length, repeats every
case, and reports median TTFT and decode rate next to the KV-cache size and the
theoretical tokens per second from the throughput model.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenario(cmd, func(ctx context.Context, suite *benchmark.Suite) (outcome, error) {
			res, err := suite.ContextSweep(ctx)
			if len(res.Rows) == 0 {
				return outcome{}, err
			}
			return outcome{
				name:    "context",
				title:   "Context length vs decode speed",
				table:   res,
				results: res,
				cases:   contextCases(res),
			}, err
		})
	},
}

// speedupCmd reruns the sweep with a feature disabled and reports baseline/current.
var speedupCmd = &cobra.Command{
	Use:   "speedup",
	Short: "Compare a context sweep against a baseline sweep",
	Long: `Runs the context sweep against the current endpoint and divides the baseline
decode rate by the measured one for every context length. The baseline comes from
--baseline (a context.json result file) or the most recent context run in the
history database.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		baseline, source, err := loadBaseline(cmdContext(cmd), cfg.HistoryPath(), speedupBaseline)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Baseline: %s (%d context lengths)\n", source, len(baseline))

		return runScenario(cmd, func(ctx context.Context, suite *benchmark.Suite) (outcome, error) {
			res, err := suite.Speedup(ctx, baseline)
			if len(res.Rows) == 0 {
				return outcome{}, err
			}
			return outcome{
				name:    "speedup",
				title:   "Speedup vs baseline",
				table:   res,
				results: res,
				cases:   speedupCases(res),
			}, err
		})
	},
}

// theoryCmd prints the throughput model without contacting the endpoint.
var theoryCmd = &cobra.Command{
	Use:   "theory",
	Short: "Print the theoretical throughput table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		res, err := benchmark.Theory(cfg.Throughput, cfg.SweepLengths())
		if err != nil {
			return err
		}
		renderTable(cmd, "Theoretical decode throughput", res)
		return nil
	},
}

func loadBaseline(ctx context.Context, historyPath, file string) (map[int]float64, string, error) {
	if file != "" {
		rates, err := benchmark.LoadContextBaseline(file)
		return rates, file, err
	}
	store, err := history.Open(historyPath)
	if err != nil {
		return nil, "", err
	}
	defer store.Close()
	rates, runID, err := store.LatestDecodeByContext(ctx, "context")
	if err != nil {
		return nil, "", fmt.Errorf("no baseline given and none found in history: %w", err)
	}
	return rates, "history run " + runID, nil
}

func contextCases(res benchmark.ContextSweepResult) []history.Case {
	cases := make([]history.Case, 0, len(res.Rows))
	for _, row := range res.Rows {
		cases = append(cases, history.Case{
			Label:         fmt.Sprintf("context %d", row.ContextLength),
			ContextLength: row.ContextLength,
			TTFTMillis:    row.TTFTMillis,
			DecodeToks:    row.DecodeToks,
			OK:            row.Kept > 0,
		})
	}
	return cases
}

func speedupCases(res benchmark.SpeedupResult) []history.Case {
	cases := make([]history.Case, 0, len(res.Rows))
	for _, row := range res.Rows {
		cases = append(cases, history.Case{
			Label:         fmt.Sprintf("context %d", row.ContextLength),
			ContextLength: row.ContextLength,
			TTFTMillis:    row.TTFTMillis,
			DecodeToks:    row.CurrentToks,
			OK:            row.Kept > 0,
		})
	}
	return cases
}

func init() {
	speedupCmd.Flags().StringVar(&speedupBaseline, "baseline", "", "context sweep JSON file to compare against")

	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(speedupCmd)
	rootCmd.AddCommand(theoryCmd)
}
