// internal/commands/root.go
package tokbench

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mwiater/tokbench/internal/appconfig"
	"github.com/mwiater/tokbench/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tokbench",
	Short: "tokbench: latency and throughput benchmarks for OpenAI-compatible endpoints",
	Long: `tokbench drives scripted workloads against a streaming, tool-call-capable
chat completion endpoint and reports time-to-first-token, decode rate and a
bandwidth-bound theoretical ceiling for each case.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := appconfig.Load(viper.GetViper())
		if err != nil {
			return err
		}
		currentConfig = &cfg

		if err := logging.Init(currentConfig.LogFilePath(), currentConfig.Debug); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logging.Close()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		_ = logging.Close()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (YAML, TOML or JSON)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging, including request payloads")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")
	rootCmd.PersistentFlags().String("output", "", "directory for CSV and JSON results")
	rootCmd.PersistentFlags().Int("repeats", 0, "trials per case (0 = config or default)")
	rootCmd.PersistentFlags().String("url", "", "endpoint base URL, e.g. http://localhost:30000/v1")
	rootCmd.PersistentFlags().String("model", "", "model name sent with every request")

	bindConfig()
}

// bindConfig ties the persistent flags and TOKBENCH_ environment variables to
// the global viper instance.
func bindConfig() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("logFile", flags.Lookup("logFile"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("repeats", flags.Lookup("repeats"))
	_ = viper.BindPFlag("endpoint.url", flags.Lookup("url"))
	_ = viper.BindPFlag("endpoint.model", flags.Lookup("model"))

	viper.SetEnvPrefix("TOKBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
