// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mwiater/tokbench/internal/throughput"
	"github.com/spf13/viper"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func viperFor(path string) *viper.Viper {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	}
	return v
}

// TestLoad verifies a valid YAML file loads over the defaults and that a
// malformed file is rejected.
func TestLoad(t *testing.T) {
	valid := `
endpoint:
  name: spark
  url: http://localhost:30000/v1
  model: glm-4.7
repeats: 5
throughput:
  tensorParallelDegree: 2
`
	path := writeConfig(t, "config.yaml", valid)
	cfg, err := Load(viperFor(path))
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if cfg.ConfigPath != path {
		t.Fatalf("expected config path %s, got %q", path, cfg.ConfigPath)
	}
	if cfg.Endpoint.Model != "glm-4.7" {
		t.Fatalf("expected model glm-4.7, got %q", cfg.Endpoint.Model)
	}
	if cfg.RepeatCount() != 5 {
		t.Fatalf("expected 5 repeats, got %d", cfg.RepeatCount())
	}
	if cfg.Throughput.TensorParallelDegree != 2 || cfg.Throughput.LayerCount != 92 {
		t.Fatalf("expected file value merged over defaults, got %+v", cfg.Throughput)
	}
	if cfg.RequestTimeout() != 600*time.Second {
		t.Fatalf("expected default request timeout of 600s, got %v", cfg.RequestTimeout())
	}

	if _, err := Load(viperFor(writeConfig(t, "broken.json", `{ "endpoint": {`))); err == nil {
		t.Fatal("Load() with invalid JSON should have failed")
	}
}

// TestLoadWithoutFileUsesDefaults verifies a missing config file falls back to
// defaults, including valid throughput parameters, and that environment
// variables reach keys that only have defaults.
func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("TOKBENCH_THROUGHPUT_TENSORPARALLELDEGREE", "8")
	v := viperFor(filepath.Join(t.TempDir(), "missing.yaml"))
	v.SetEnvPrefix("TOKBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() without a file failed: %v", err)
	}
	if cfg.ConfigPath != "" {
		t.Fatalf("expected empty config path, got %q", cfg.ConfigPath)
	}
	if err := cfg.Throughput.Validate(); err != nil {
		t.Fatalf("default throughput params should be valid: %v", err)
	}
	if cfg.Throughput.TensorParallelDegree != 8 {
		t.Fatalf("expected env override of tensor parallel degree, got %d", cfg.Throughput.TensorParallelDegree)
	}
	if cfg.Throughput.ActiveWeightBytesPerNode != 32*throughput.GiB {
		t.Fatalf("unexpected default weight bytes %v", cfg.Throughput.ActiveWeightBytesPerNode)
	}
	if cfg.OutputPath() != "results" || cfg.RepeatCount() != 3 {
		t.Fatalf("unexpected defaults: output=%q repeats=%d", cfg.OutputPath(), cfg.RepeatCount())
	}
}

func TestLoadTOML(t *testing.T) {
	body := `
repeats = 2
contextLengths = [512, 1024]

[endpoint]
url = "http://127.0.0.1:8000/v1"
model = "qwen"
`
	cfg, err := Load(viperFor(writeConfig(t, "config.toml", body)))
	if err != nil {
		t.Fatalf("Load() toml: %v", err)
	}
	if got := cfg.SweepLengths(); len(got) != 2 || got[1] != 1024 {
		t.Fatalf("unexpected context lengths: %v", got)
	}
}

func TestDefaults(t *testing.T) {
	var cfg Config
	if cfg.RepeatCount() != 3 {
		t.Fatalf("expected 3 default repeats, got %d", cfg.RepeatCount())
	}
	if cfg.MaxTokens() != 1024 {
		t.Fatalf("expected 1024 max tokens, got %d", cfg.MaxTokens())
	}
	if cfg.ContextSweepMaxTokens() != 128 {
		t.Fatalf("expected 128 context max tokens, got %d", cfg.ContextSweepMaxTokens())
	}
	if cfg.Temperature() != 0.7 {
		t.Fatalf("expected default temperature 0.7, got %v", cfg.Temperature())
	}
	if cfg.Cooldown() != 0 {
		t.Fatalf("expected no cooldown, got %v", cfg.Cooldown())
	}
	if cfg.HistoryPath() != filepath.Join("results", "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
	lengths := cfg.SweepLengths()
	lengths[0] = 1
	if DefaultContextLengths[0] != 512 {
		t.Fatal("SweepLengths must return a copy of the defaults")
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{Endpoint: Endpoint{URL: "http://x/v1", Model: "m"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg = Config{ContextLengths: []int{512, 0}}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"endpoint.url", "endpoint.model", "context length"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestVariantEndpoint(t *testing.T) {
	cfg := Config{Endpoint: Endpoint{Name: "base", URL: "http://a/v1", Model: "m"}}
	ep := cfg.VariantEndpoint(Variant{Name: "eagle", URL: "http://b/v1"})
	if ep.URL != "http://b/v1" || ep.Model != "m" || ep.Name != "eagle" {
		t.Fatalf("unexpected overlay: %+v", ep)
	}
}

func TestReasoningModes(t *testing.T) {
	var cfg Config
	modes, err := cfg.ReasoningModes()
	if err != nil {
		t.Fatalf("ReasoningModes: %v", err)
	}
	if len(modes) != 3 || modes[0].Name != "thinking_off" {
		t.Fatalf("unexpected default modes: %+v", modes)
	}

	cfg.ThinkingModes = []Mode{{Name: "Thinking-Preserved"}}
	modes, err = cfg.ReasoningModes()
	if err != nil {
		t.Fatalf("ReasoningModes: %v", err)
	}
	kwargs, ok := modes[0].ExtraBody["chat_template_kwargs"].(map[string]any)
	if !ok || kwargs["clear_thinking"] != false {
		t.Fatalf("expected preserved preset, got %+v", modes[0].ExtraBody)
	}

	cfg.ThinkingModes = []Mode{{Name: "turbo"}}
	if _, err := cfg.ReasoningModes(); err == nil {
		t.Fatal("expected unknown mode error")
	}
}

func TestShowConfig(t *testing.T) {
	var buf bytes.Buffer
	ShowConfig(&buf, "", nil)
	if !strings.Contains(buf.String(), "No config file loaded") {
		t.Fatalf("unexpected output: %s", buf.String())
	}

	buf.Reset()
	cfg := Config{Endpoint: Endpoint{URL: "http://x/v1", Model: "m"}}
	ShowConfig(&buf, "config/config.yaml", &cfg)
	out := buf.String()
	if !strings.Contains(out, "Config file: config/config.yaml") || !strings.Contains(out, "Repeats:         3") {
		t.Fatalf("unexpected output: %s", out)
	}
}
