// internal/commands/history.go
package tokbench

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mwiater/tokbench/internal/history"
	"github.com/mwiater/tokbench/internal/report"
	"github.com/spf13/cobra"
)

var (
	historyScenario string
	historyLimit    int
)

// historyCmd lists recorded runs, or the cases of one run when given its id.
var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs or show one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmdContext(cmd)
		if len(args) == 1 {
			run, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			renderTable(cmd, fmt.Sprintf("%s run %s (%s)", run.Scenario, run.ID, run.Model), caseTable(run.Cases))
			return nil
		}

		runs, err := store.Recent(ctx, historyScenario, historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}
		renderTable(cmd, "Recent runs", runTable(runs))
		return nil
	},
}

type runTable []history.Summary

func (t runTable) Header() []string {
	return []string{"id", "scenario", "endpoint", "model", "started", "cases", "ok"}
}

func (t runTable) Records() [][]string {
	records := make([][]string, 0, len(t))
	for _, r := range t {
		records = append(records, []string{
			r.ID, r.Scenario, r.Endpoint, r.Model,
			r.StartedAt.Local().Format(time.DateTime),
			strconv.Itoa(r.CaseCount), strconv.Itoa(r.OKCount),
		})
	}
	return records
}

type caseTable []history.Case

func (t caseTable) Header() []string {
	return []string{"case", "context_length", "ttft_ms", "decode_toks", "ok"}
}

func (t caseTable) Records() [][]string {
	records := make([][]string, 0, len(t))
	for _, c := range t {
		length := ""
		if c.ContextLength > 0 {
			length = strconv.Itoa(c.ContextLength)
		}
		records = append(records, []string{
			c.Label, length,
			strconv.FormatFloat(c.TTFTMillis, 'f', 1, 64),
			strconv.FormatFloat(c.DecodeToks, 'f', 2, 64),
			report.Check(c.OK),
		})
	}
	return records
}

func renderTable(cmd *cobra.Command, title string, t report.Table) {
	report.Render(cmd.OutOrStdout(), title, t)
}

func init() {
	historyCmd.Flags().StringVar(&historyScenario, "scenario", "", "only list runs of this scenario")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)
}
