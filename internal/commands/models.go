// internal/commands/models.go
package tokbench

import (
	"fmt"
	"strings"

	"github.com/mwiater/tokbench/internal/providerfactory"
	"github.com/spf13/cobra"
)

// modelsCmd lists the models the configured endpoint serves.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models served by the endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		if strings.TrimSpace(cfg.Endpoint.URL) == "" {
			return fmt.Errorf("endpoint.url is required")
		}
		models, err := providerfactory.ListModels(cmdContext(cmd), cfg, cfg.Endpoint)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s:\n", cfg.Endpoint.Identifier())
		for _, m := range models {
			marker := " "
			if m == cfg.Endpoint.Model {
				marker = "*"
			}
			fmt.Fprintf(w, " %s %s\n", marker, m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
