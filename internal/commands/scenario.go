// internal/commands/scenario.go
package tokbench

import (
	"fmt"

	"github.com/mwiater/tokbench/internal/scenario"
	"github.com/spf13/cobra"
)

// scenarioCmd groups scenario file commands.
var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Work with agentic scenario files",
}

// validateScenarioCmd checks a scenario file against the schema without running it.
var validateScenarioCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a scenario file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := scenario.LoadFile(args[0])
		if err != nil {
			return err
		}
		expect := 0
		for _, turn := range def.Turns {
			if turn.ExpectToolCall {
				expect++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d turns (%d expect a tool call), %d tools\n",
			def.Name, len(def.Turns), expect, len(def.Tools))
		return nil
	},
}

func init() {
	scenarioCmd.AddCommand(validateScenarioCmd)
	rootCmd.AddCommand(scenarioCmd)
}
