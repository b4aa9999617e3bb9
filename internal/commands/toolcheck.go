// internal/commands/toolcheck.go
package tokbench

import (
	"context"
	"fmt"

	"github.com/mwiater/tokbench/internal/benchmark"
	"github.com/mwiater/tokbench/internal/history"
	"github.com/mwiater/tokbench/internal/report"
	"github.com/mwiater/tokbench/internal/scenario"
	"github.com/spf13/cobra"
)

// toolcheckCmd runs the tool-calling smoke tests.
var toolcheckCmd = &cobra.Command{
	Use:   "toolcheck",
	Short: "Smoke-test tool calling, streaming and non-streaming",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenario(cmd, func(ctx context.Context, suite *benchmark.Suite) (outcome, error) {
			res, err := suite.ToolCheck(ctx, scenario.ToolChecks(), scenario.ToolCheckTools())
			if len(res.Checks) == 0 {
				return outcome{}, err
			}

			w := cmd.OutOrStdout()
			for _, c := range res.Checks {
				fmt.Fprintf(w, "[%s] %s", report.Marker(string(c.Status)), c.Name)
				if calls := benchmark.FormatToolCalls(c.ToolCalls); calls != "" {
					fmt.Fprintf(w, ": %s", calls)
				}
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%d passed, %d warned, %d failed\n",
				res.Count(benchmark.StatusPass), res.Count(benchmark.StatusWarn), res.Count(benchmark.StatusFail))

			return outcome{
				name:    "toolcheck",
				title:   "Tool calling checks",
				table:   res,
				results: res,
				cases:   toolcheckCases(res),
			}, err
		})
	},
}

func toolcheckCases(res benchmark.ToolCheckResult) []history.Case {
	cases := make([]history.Case, 0, len(res.Checks))
	for _, c := range res.Checks {
		cases = append(cases, history.Case{
			Label:      c.Name,
			TTFTMillis: c.Metrics.TTFTMillis,
			DecodeToks: c.Metrics.DecodeTokensPerSecond,
			OK:         c.Status == benchmark.StatusPass,
		})
	}
	return cases
}

func init() {
	rootCmd.AddCommand(toolcheckCmd)
}
