// internal/commands/commands_test.go
package tokbench

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/tokbench/internal/history"
	"github.com/mwiater/tokbench/internal/logging"
	"github.com/spf13/viper"
)

func resetFlags() {
	for _, name := range []string{"debug", "logFile", "output", "repeats", "url", "model"} {
		flag := rootCmd.PersistentFlags().Lookup(name)
		if flag == nil {
			continue
		}
		_ = flag.Value.Set(flag.DefValue)
		flag.Changed = false
	}
	speedupBaseline = ""
	agenticScenarioFile = ""
	historyScenario = ""
	historyLimit = 20
}

// writeTempConfig writes a YAML config whose output, history and log paths
// live in a fresh temp directory, followed by extra.
func writeTempConfig(t *testing.T, extra string) (path, dir string) {
	t.Helper()
	dir = t.TempDir()
	content := fmt.Sprintf("output: %s\nhistoryDB: %s\nlogFile: %s\n%s",
		filepath.Join(dir, "results"),
		filepath.Join(dir, "history.db"),
		filepath.Join(dir, "tokbench.log"),
		extra)
	path = filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	viper.Reset()
	bindConfig()
	prevCfgFile := cfgFile
	t.Cleanup(func() {
		cfgFile = prevCfgFile
		viper.SetConfigFile(prevCfgFile)
		rootCmd.SetArgs([]string{})
		resetFlags()
		_ = logging.Close()
	})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

const throughputYAML = `throughput:
  layerCount: 92
  kvHeadCount: 8
  headDim: 53
  kvDtypeBytes: 2
  activeWeightBytesPerNode: 34359738368
  perNodeBandwidthGBps: 273
  tensorParallelDegree: 4
contextLengths: [4096]
`

func TestTheoryCommandPrintsModelTable(t *testing.T) {
	configPath, _ := writeTempConfig(t, throughputYAML)

	out, err := execute(t, "--config", configPath, "theory")
	if err != nil {
		t.Fatalf("theory returned error: %v\n%s", err, out)
	}
	for _, want := range []string{"Theoretical decode throughput", "4096", "0.595", "33.50"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestTheoryCommandRejectsInvalidParams(t *testing.T) {
	configPath, _ := writeTempConfig(t, "throughput:\n  layerCount: 0\n")

	if _, err := execute(t, "--config", configPath, "theory"); err == nil {
		t.Fatal("expected error for a zero layer count")
	}
}

func TestTheoryCommandUsesDefaultParamsWithoutConfigFile(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "--config", filepath.Join(dir, "absent.yaml"), "--logFile", filepath.Join(dir, "t.log"), "theory")
	if err != nil {
		t.Fatalf("theory without a config file returned error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "0.595") || !strings.Contains(out, "33.50") {
		t.Fatalf("expected the 4096-token row from default params:\n%s", out)
	}
}

func TestShowConfigCommandOutput(t *testing.T) {
	configPath, _ := writeTempConfig(t, "repeats: 5\nendpoint:\n  url: http://localhost:30000/v1\n  model: glm\n")

	out, err := execute(t, "--config", configPath, "--repeats", "2", "config", "show")
	if err != nil {
		t.Fatalf("config show returned error: %v", err)
	}
	if !strings.Contains(out, "Config file: "+configPath) {
		t.Fatalf("expected config file path in output, got %s", out)
	}
	if !strings.Contains(out, "Repeats:         2") {
		t.Fatalf("expected flag to override repeats, got %s", out)
	}
}

func TestMissingConfigFileFallsBackToDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	out, err := execute(t, "--config", missing, "--logFile", filepath.Join(t.TempDir(), "t.log"), "config", "show")
	if err != nil {
		t.Fatalf("config show returned error: %v", err)
	}
	if !strings.Contains(out, "No config file loaded (using defaults).") {
		t.Fatalf("expected defaults notice, got %s", out)
	}
}

func TestBenchmarkCommandsRequireEndpoint(t *testing.T) {
	configPath, _ := writeTempConfig(t, "")

	_, err := execute(t, "--config", configPath, "toolcheck")
	if err == nil || !strings.Contains(err.Error(), "endpoint.url is required") {
		t.Fatalf("expected endpoint validation error, got %v", err)
	}
}

func TestABCommandRejectsUnknownMode(t *testing.T) {
	configPath, _ := writeTempConfig(t, "")

	_, err := execute(t, "--config", configPath, "--url", "http://localhost:1/v1", "--model", "m", "ab", "sideways")
	if err == nil || !strings.Contains(err.Error(), "unknown A/B mode") {
		t.Fatalf("expected mode error, got %v", err)
	}
}

func TestScenarioValidateCommand(t *testing.T) {
	configPath, dir := writeTempConfig(t, "")
	scenarioPath := filepath.Join(dir, "review.yaml")
	doc := `systemPrompt: You review code.
turns:
  - user: Read main.go
    toolResult: "package main"
  - user: Summarize it
`
	if err := os.WriteFile(scenarioPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}

	out, err := execute(t, "--config", configPath, "scenario", "validate", scenarioPath)
	if err != nil {
		t.Fatalf("scenario validate returned error: %v", err)
	}
	if !strings.Contains(out, "review: 2 turns (1 expect a tool call)") {
		t.Fatalf("unexpected output: %s", out)
	}
}

// fakeEndpoint answers streaming requests with SSE and non-streaming ones
// with a single JSON body. Requests that carry tools get a read_file call,
// the rest get plain text.
func fakeEndpoint(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_, withTools := payload["tools"]
		streaming, _ := payload["stream"].(bool)

		if !streaming {
			w.Header().Set("Content-Type", "application/json")
			if withTools {
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"read_file","arguments":"{\"path\":\"/etc/hostname\"}"}}]}}]}`))
				return
			}
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello there"}}]}`))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		var chunks []string
		if withTools {
			chunks = []string{
				`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"read_file","arguments":""}}]}}]}`,
				`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"path\":"}}]}}]}`,
				`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"/etc/hostname\"}"}}]}}]}`,
			}
		} else {
			chunks = []string{
				`{"choices":[{"delta":{"content":"one"}}]}`,
				`{"choices":[{"delta":{"content":" two"}}]}`,
				`{"choices":[{"delta":{"content":" three"}}]}`,
			}
		}
		flusher, _ := w.(http.Flusher)
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			if flusher != nil {
				flusher.Flush()
			}
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestToolcheckCommandEndToEnd(t *testing.T) {
	server := fakeEndpoint(t)
	defer server.Close()
	configPath, dir := writeTempConfig(t, "")

	out, err := execute(t, "--config", configPath, "--url", server.URL+"/v1", "--model", "glm", "toolcheck")
	if err != nil {
		t.Fatalf("toolcheck returned error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "4 passed, 0 warned, 0 failed") {
		t.Fatalf("expected every check to pass:\n%s", out)
	}
	for _, name := range []string{"toolcheck.csv", "toolcheck.json"} {
		if _, err := os.Stat(filepath.Join(dir, "results", name)); err != nil {
			t.Fatalf("expected %s to be written: %v", name, err)
		}
	}

	store, err := history.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()
	runs, err := store.Recent(context.Background(), "toolcheck", 10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 || runs[0].CaseCount != 4 || runs[0].OKCount != 4 || runs[0].Model != "glm" {
		t.Fatalf("unexpected history: %+v", runs)
	}
}

func TestContextThenSpeedupUsesHistoryBaseline(t *testing.T) {
	server := fakeEndpoint(t)
	defer server.Close()
	configPath, dir := writeTempConfig(t, throughputYAML+"repeats: 1\n")
	args := []string{"--config", configPath, "--url", server.URL + "/v1", "--model", "glm"}

	out, err := execute(t, append(args, "context")...)
	if err != nil {
		t.Fatalf("context returned error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "33.50") {
		t.Fatalf("expected theoretical rate in context table:\n%s", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "results", "context.json"))
	if err != nil {
		t.Fatalf("read context.json: %v", err)
	}
	var doc struct {
		RunID   string `json:"run_id"`
		Results struct {
			Rows []struct {
				ContextLength int `json:"context_length"`
				Kept          int `json:"kept"`
			} `json:"rows"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode context.json: %v", err)
	}
	if doc.RunID == "" || len(doc.Results.Rows) != 1 || doc.Results.Rows[0].ContextLength != 4096 || doc.Results.Rows[0].Kept != 1 {
		t.Fatalf("unexpected context document: %s", data)
	}

	out, err = execute(t, append(args, "speedup")...)
	if err != nil {
		t.Fatalf("speedup returned error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Baseline: history run "+doc.RunID) {
		t.Fatalf("expected baseline from history run %s:\n%s", doc.RunID, out)
	}

	out, err = execute(t, "--config", configPath, "history", "--scenario", "speedup")
	if err != nil {
		t.Fatalf("history returned error: %v", err)
	}
	if !strings.Contains(out, "Recent runs") || !strings.Contains(out, "speedup") {
		t.Fatalf("expected speedup run in history:\n%s", out)
	}
}

func TestSpeedupWithoutBaselineFails(t *testing.T) {
	configPath, _ := writeTempConfig(t, throughputYAML)

	_, err := execute(t, "--config", configPath, "--url", "http://localhost:1/v1", "--model", "m", "speedup")
	if err == nil || !strings.Contains(err.Error(), "no baseline") {
		t.Fatalf("expected missing baseline error, got %v", err)
	}
}
