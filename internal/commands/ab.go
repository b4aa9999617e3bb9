// internal/commands/ab.go
package tokbench

import (
	"context"
	"fmt"

	"github.com/mwiater/tokbench/internal/benchmark"
	"github.com/mwiater/tokbench/internal/history"
	"github.com/mwiater/tokbench/internal/scenario"
	"github.com/spf13/cobra"
)

// abCmd runs the prompt set against variant A, variant B, or both.
var abCmd = &cobra.Command{
	Use:   "ab [a|b|both]",
	Short: "A/B compare two endpoint variants",
	Long: `Runs the A/B prompt set against the variants configured under variants.a and
variants.b. Each variant may override the endpoint URL, model and extra request
body. With "both" (the default) a cooldown separates the arms and the B-A delta
is reported.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"a", "b", "both"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var arg string
		if len(args) > 0 {
			arg = args[0]
		}
		mode, err := benchmark.ParseABMode(arg)
		if err != nil {
			return err
		}

		return runScenario(cmd, func(ctx context.Context, suite *benchmark.Suite) (outcome, error) {
			res, err := suite.AB(ctx, mode, scenario.ABPrompts())
			if res.A == nil && res.B == nil {
				return outcome{}, err
			}
			if res.DecodeDelta != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Decode B-A: %+.2f tok/s (%s)\n", res.DecodeDelta.Diff, res.DecodeDelta.PctString())
			}
			return outcome{
				name:    "ab",
				file:    "ab " + mode.String(),
				title:   "A/B comparison (" + mode.String() + ")",
				table:   res,
				results: res,
				cases:   abCases(res),
			}, err
		})
	},
}

func abCases(res benchmark.ABResult) []history.Case {
	var cases []history.Case
	for _, arm := range []*benchmark.ABArm{res.A, res.B} {
		if arm == nil {
			continue
		}
		for _, c := range arm.Cases {
			cases = append(cases, history.Case{
				Label:      arm.Name + "/" + c.Label,
				TTFTMillis: c.MedianTTFT(),
				DecodeToks: c.MedianDecode(),
				OK:         c.Kept > 0,
			})
		}
	}
	return cases
}

func init() {
	rootCmd.AddCommand(abCmd)
}
