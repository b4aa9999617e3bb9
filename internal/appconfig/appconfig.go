// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/mwiater/tokbench/internal/throughput"
	"github.com/spf13/viper"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.yaml"
	// defaultRequestTimeout is the default timeout for HTTP requests.
	defaultRequestTimeout = 600 * time.Second
	// defaultRepeats is the number of trials per benchmark case when the config omits the value.
	defaultRepeats = 3
	// defaultMaxTokens bounds generation for agentic and single-shot requests.
	defaultMaxTokens = 1024
	// defaultContextMaxTokens bounds generation during context sweeps.
	defaultContextMaxTokens = 128
	// defaultTemperature is used when the config omits a sampling temperature.
	defaultTemperature = 0.7
	// defaultOutputDir receives CSV and JSON results.
	defaultOutputDir = "results"
)

// DefaultContextLengths is the context sweep used when none is configured.
var DefaultContextLengths = []int{512, 1024, 2048, 4096, 8192, 16384, 32768}

// Config represents the top-level application configuration.
type Config struct {
	Endpoint            Endpoint          `json:"endpoint" mapstructure:"endpoint"`
	Parameters          Parameters        `json:"parameters" mapstructure:"parameters"`
	Throughput          throughput.Params `json:"throughput" mapstructure:"throughput"`
	Repeats             int               `json:"repeats" mapstructure:"repeats"`
	CooldownSeconds     int               `json:"cooldownSeconds" mapstructure:"cooldownSeconds"`
	TrialIntervalMillis int               `json:"trialIntervalMillis,omitempty" mapstructure:"trialIntervalMillis"`
	ContextLengths      []int             `json:"contextLengths,omitempty" mapstructure:"contextLengths"`
	ContextMaxTokens    int               `json:"contextMaxTokens,omitempty" mapstructure:"contextMaxTokens"`
	Variants            Variants          `json:"variants" mapstructure:"variants"`
	ThinkingModes       []Mode            `json:"thinkingModes,omitempty" mapstructure:"thinkingModes"`
	ScenarioFile        string            `json:"scenarioFile,omitempty" mapstructure:"scenarioFile"`
	OutputDir           string            `json:"output,omitempty" mapstructure:"output"`
	HistoryDB           string            `json:"historyDB,omitempty" mapstructure:"historyDB"`
	LogFile             string            `json:"logFile,omitempty" mapstructure:"logFile"`
	TimeoutSeconds      int               `json:"timeout,omitempty" mapstructure:"timeout"`
	Debug               bool              `json:"debug" mapstructure:"debug"`
	ConfigPath          string            `json:"-" mapstructure:"-"`
}

// Endpoint identifies an OpenAI-compatible inference server and the model it serves.
type Endpoint struct {
	Name   string `json:"name" mapstructure:"name"`
	URL    string `json:"url" mapstructure:"url"`
	APIKey string `json:"apiKey,omitempty" mapstructure:"apiKey"`
	Model  string `json:"model" mapstructure:"model"`
}

// Parameters defines the sampling parameters sent with every request.
type Parameters struct {
	Temperature *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	MaxTokens   int      `json:"max_tokens,omitempty" mapstructure:"max_tokens"`
}

// Variant overrides parts of the endpoint for one arm of an A/B comparison.
type Variant struct {
	Name      string         `json:"name" mapstructure:"name"`
	URL       string         `json:"url,omitempty" mapstructure:"url"`
	Model     string         `json:"model,omitempty" mapstructure:"model"`
	ExtraBody map[string]any `json:"extraBody,omitempty" mapstructure:"extraBody"`
}

// Variants holds both arms of an A/B comparison.
type Variants struct {
	A Variant `json:"a" mapstructure:"a"`
	B Variant `json:"b" mapstructure:"b"`
}

// Identifier returns the endpoint name, falling back to its URL.
func (e Endpoint) Identifier() string {
	if name := strings.TrimSpace(e.Name); name != "" {
		return name
	}
	if url := strings.TrimSpace(e.URL); url != "" {
		return url
	}
	return "endpoint"
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RepeatCount returns the number of trials per case.
func (c Config) RepeatCount() int {
	if c.Repeats <= 0 {
		return defaultRepeats
	}
	return c.Repeats
}

// Cooldown returns the pause inserted between benchmark phases.
func (c Config) Cooldown() time.Duration {
	if c.CooldownSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CooldownSeconds) * time.Second
}

// TrialInterval returns the minimum spacing between trial starts; zero disables pacing.
func (c Config) TrialInterval() time.Duration {
	if c.TrialIntervalMillis <= 0 {
		return 0
	}
	return time.Duration(c.TrialIntervalMillis) * time.Millisecond
}

// Temperature returns the configured sampling temperature.
func (c Config) Temperature() float64 {
	if c.Parameters.Temperature == nil {
		return defaultTemperature
	}
	return *c.Parameters.Temperature
}

// MaxTokens returns the generation limit for agentic and single-shot requests.
func (c Config) MaxTokens() int {
	if c.Parameters.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return c.Parameters.MaxTokens
}

// ContextSweepMaxTokens returns the generation limit used by context sweeps.
func (c Config) ContextSweepMaxTokens() int {
	if c.ContextMaxTokens <= 0 {
		return defaultContextMaxTokens
	}
	return c.ContextMaxTokens
}

// SweepLengths returns the configured context lengths or the default sweep.
func (c Config) SweepLengths() []int {
	if len(c.ContextLengths) == 0 {
		return append([]int(nil), DefaultContextLengths...)
	}
	return append([]int(nil), c.ContextLengths...)
}

// OutputPath returns the results directory.
func (c Config) OutputPath() string {
	if path := strings.TrimSpace(c.OutputDir); path != "" {
		return path
	}
	return defaultOutputDir
}

// HistoryPath returns the SQLite history database path.
func (c Config) HistoryPath() string {
	if path := strings.TrimSpace(c.HistoryDB); path != "" {
		return path
	}
	return filepath.Join(c.OutputPath(), "history.db")
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "tokbench.log"
}

// VariantEndpoint overlays a variant onto the base endpoint.
func (c Config) VariantEndpoint(v Variant) Endpoint {
	ep := c.Endpoint
	if url := strings.TrimSpace(v.URL); url != "" {
		ep.URL = url
	}
	if model := strings.TrimSpace(v.Model); model != "" {
		ep.Model = model
	}
	if name := strings.TrimSpace(v.Name); name != "" {
		ep.Name = name
	}
	return ep
}

// Validate checks the fields every benchmark needs before the first trial.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Endpoint.URL) == "" {
		errs = append(errs, errors.New("endpoint.url is required"))
	}
	if strings.TrimSpace(c.Endpoint.Model) == "" {
		errs = append(errs, errors.New("endpoint.model is required"))
	}
	if c.Repeats < 0 {
		errs = append(errs, fmt.Errorf("repeats must not be negative, got %d", c.Repeats))
	}
	for _, length := range c.ContextLengths {
		if length <= 0 {
			errs = append(errs, fmt.Errorf("context length must be positive, got %d", length))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// SetDefaults registers the built-in defaults on v. Every key with a default
// can also be overridden through the environment once AutomaticEnv is on.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("endpoint.name", "")
	v.SetDefault("endpoint.apiKey", "")
	v.SetDefault("repeats", defaultRepeats)
	v.SetDefault("cooldownSeconds", 0)
	v.SetDefault("trialIntervalMillis", 0)
	v.SetDefault("contextMaxTokens", defaultContextMaxTokens)
	v.SetDefault("timeout", int(defaultRequestTimeout.Seconds()))
	v.SetDefault("output", defaultOutputDir)
	v.SetDefault("scenarioFile", "")
	v.SetDefault("historyDB", "")

	// Four tensor-parallel nodes at 273 GB/s, 32 GiB of active weights each.
	v.SetDefault("throughput.layerCount", 92)
	v.SetDefault("throughput.kvHeadCount", 8)
	v.SetDefault("throughput.headDim", 53)
	v.SetDefault("throughput.kvDtypeBytes", 2)
	v.SetDefault("throughput.activeWeightBytesPerNode", 32*throughput.GiB)
	v.SetDefault("throughput.perNodeBandwidthGBps", 273)
	v.SetDefault("throughput.tensorParallelDegree", 4)
}

// Load registers the defaults on v, reads the config file set on v and
// decodes the merged result of defaults, file, environment and bound flags.
// A missing config file is not an error; ConfigPath stays empty in that case.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	loaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		loaded = false
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if loaded {
		config.ConfigPath = v.ConfigFileUsed()
	}
	return config, nil
}
