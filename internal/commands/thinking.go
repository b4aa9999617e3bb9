// internal/commands/thinking.go
package tokbench

import (
	"context"

	"github.com/mwiater/tokbench/internal/benchmark"
	"github.com/mwiater/tokbench/internal/history"
	"github.com/mwiater/tokbench/internal/scenario"
	"github.com/spf13/cobra"
)

// thinkingCmd compares reasoning modes on one tool-calling task.
var thinkingCmd = &cobra.Command{
	Use:   "thinking",
	Short: "Compare reasoning modes on a tool-calling task",
	Long: `Sends the same tool-calling task with each configured reasoning mode (by
default thinking off, on and preserved) and reports latency, reasoning volume
and whether the expected tool was called.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		modes, err := cfg.ReasoningModes()
		if err != nil {
			return err
		}

		return runScenario(cmd, func(ctx context.Context, suite *benchmark.Suite) (outcome, error) {
			res, err := suite.Thinking(ctx, modes, scenario.ThinkingTask())
			if len(res.Rows) == 0 {
				return outcome{}, err
			}
			return outcome{
				name:    "thinking",
				title:   "Reasoning modes",
				table:   res,
				results: res,
				cases:   thinkingCases(res),
			}, err
		})
	},
}

func thinkingCases(res benchmark.ThinkingResult) []history.Case {
	cases := make([]history.Case, 0, len(res.Rows))
	for _, row := range res.Rows {
		cases = append(cases, history.Case{
			Label:      row.Mode,
			TTFTMillis: row.TTFTMillis,
			DecodeToks: row.DecodeToks,
			OK:         row.Correct,
		})
	}
	return cases
}

func init() {
	rootCmd.AddCommand(thinkingCmd)
}
