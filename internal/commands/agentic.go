// internal/commands/agentic.go
package tokbench

import (
	"context"
	"fmt"

	"github.com/mwiater/tokbench/internal/benchmark"
	"github.com/mwiater/tokbench/internal/history"
	"github.com/mwiater/tokbench/internal/scenario"
	"github.com/spf13/cobra"
)

var agenticScenarioFile string

// agenticCmd replays a scripted multi-turn tool-calling session.
var agenticCmd = &cobra.Command{
	Use:   "agentic",
	Short: "Run a multi-turn tool-calling session and time every turn",
	Long: `Replays a scripted coding session turn by turn. Tool calls are answered with
pre-scripted results so the conversation grows the way an agent's would. Use
--scenario (or scenarioFile in the config) to load turns from a YAML, TOML or
JSON file instead of the built-in session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		def := scenario.AgenticSession()
		path := agenticScenarioFile
		if path == "" {
			path = cfg.ScenarioFile
		}
		if path != "" {
			if def, err = scenario.LoadFile(path); err != nil {
				return err
			}
		}

		return runScenario(cmd, func(ctx context.Context, suite *benchmark.Suite) (outcome, error) {
			res, err := suite.Agentic(ctx, def)
			if len(res.Turns) == 0 {
				return outcome{}, err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d turns met expectations, %d messages\n",
				res.Scenario, res.Passed(), len(res.Turns), res.Messages)
			file := "agentic"
			if res.Scenario != file {
				file += " " + res.Scenario
			}
			return outcome{
				name:    "agentic",
				file:    file,
				title:   "Agentic session: " + res.Scenario,
				table:   res,
				results: res,
				cases:   agenticCases(res),
			}, err
		})
	},
}

func agenticCases(res benchmark.AgenticResult) []history.Case {
	cases := make([]history.Case, 0, len(res.Turns))
	for _, t := range res.Turns {
		cases = append(cases, history.Case{
			Label:      fmt.Sprintf("turn %d", t.Turn),
			TTFTMillis: t.Metrics.TTFTMillis,
			DecodeToks: t.Metrics.DecodeTokensPerSecond,
			OK:         t.ExpectationMet,
		})
	}
	return cases
}

func init() {
	agenticCmd.Flags().StringVar(&agenticScenarioFile, "scenario", "", "scenario file (YAML, TOML or JSON)")
	rootCmd.AddCommand(agenticCmd)
}
