package appconfig

import (
	"fmt"
	"io"

	"github.com/k0kubun/pp"
)

// ShowConfig prints the file the configuration came from followed by the
// merged configuration record.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		fmt.Fprintln(out, "Configuration not loaded.")
		return
	}

	fmt.Fprintln(out, "Current configuration:")
	pp.Fprintln(out, *cfg)

	fmt.Fprintln(out, "Derived settings:")
	fmt.Fprintf(out, "  Repeats:         %d\n", cfg.RepeatCount())
	fmt.Fprintf(out, "  Cooldown:        %s\n", cfg.Cooldown())
	fmt.Fprintf(out, "  Request Timeout: %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Context Lengths: %v\n", cfg.SweepLengths())
	fmt.Fprintf(out, "  Output Dir:      %s\n", cfg.OutputPath())
	fmt.Fprintf(out, "  History DB:      %s\n", cfg.HistoryPath())
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
}
