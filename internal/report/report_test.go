package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
)

type rowsTable struct {
	header []string
	rows   [][]string
}

func (r rowsTable) Header() []string    { return r.header }
func (r rowsTable) Records() [][]string { return r.rows }

func sampleTable() rowsTable {
	return rowsTable{
		header: []string{"context_length", "ttft_ms", "decode_toks"},
		rows: [][]string{
			{"512", "88.1", "41.20"},
			{"1024", "120.4", "40.95"},
		},
	}
}

func TestSinkWritesCSVAndJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	sink := NewSink(dir)
	doc := Document{
		RunID:     "run-1",
		Scenario:  "context",
		Model:     "m",
		StartedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Results:   map[string]any{"rows": 2},
	}

	paths, err := sink.Write("context", doc, sampleTable())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if paths.CSV != filepath.Join(dir, "context.csv") || paths.JSON != filepath.Join(dir, "context.json") {
		t.Fatalf("unexpected paths: %+v", paths)
	}

	f, err := os.Open(paths.CSV)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 || records[0][0] != "context_length" || records[2][2] != "40.95" {
		t.Fatalf("unexpected csv content: %v", records)
	}

	data, err := os.ReadFile(paths.JSON)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if decoded["run_id"] != "run-1" || decoded["scenario"] != "context" {
		t.Fatalf("unexpected json envelope: %s", data)
	}
}

func TestRenderIncludesHeadersAndCells(t *testing.T) {
	var buf bytes.Buffer
	tbl := sampleTable()
	tbl.rows = append(tbl.rows, []string{"2048", strings.Repeat("z", 100), "1"})

	Render(&buf, "Context sweep", tbl)

	out := buf.String()
	for _, want := range []string{"Context sweep", "context_length", "1024", "40.95"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, strings.Repeat("z", 61)) {
		t.Fatalf("long cell was not truncated:\n%s", out)
	}
}

func TestMarker(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	if got := Marker("PASS"); got != "PASS" {
		t.Fatalf("Marker(PASS) = %q", got)
	}
	if got := Marker("other"); got != "other" {
		t.Fatalf("Marker(other) = %q", got)
	}
	if got := Check(false); got != "FAIL" {
		t.Fatalf("Check(false) = %q", got)
	}
}
