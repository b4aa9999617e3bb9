// internal/report/report.go
// Package report persists scenario results as CSV and JSON files and renders
// them as console tables.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mwiater/tokbench/internal/logging"
)

// Table is a result that can be flattened into rows.
type Table interface {
	Header() []string
	Records() [][]string
}

// Document is the JSON envelope written for every scenario run.
type Document struct {
	RunID     string    `json:"run_id"`
	Scenario  string    `json:"scenario"`
	Endpoint  string    `json:"endpoint"`
	Model     string    `json:"model"`
	StartedAt time.Time `json:"started_at"`
	Results   any       `json:"results"`
}

// Paths are the files produced by one Write.
type Paths struct {
	CSV  string
	JSON string
}

// Sink writes result files into a directory.
type Sink struct {
	dir string
}

// NewSink returns a Sink rooted at dir.
func NewSink(dir string) *Sink {
	return &Sink{dir: dir}
}

// Write stores table as <dir>/<name>.csv and doc as <dir>/<name>.json.
func (s *Sink) Write(name string, doc Document, table Table) (Paths, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("error creating results directory: %w", err)
	}
	paths := Paths{
		CSV:  filepath.Join(s.dir, name+".csv"),
		JSON: filepath.Join(s.dir, name+".json"),
	}
	if err := writeCSV(paths.CSV, table); err != nil {
		return Paths{}, err
	}
	if err := writeJSON(paths.JSON, doc); err != nil {
		return Paths{}, err
	}
	logging.LogEvent("Results written to %s and %s", paths.CSV, paths.JSON)
	return paths, nil
}

func writeCSV(path string, table Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating result file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(table.Header()); err != nil {
		return fmt.Errorf("error writing csv header: %w", err)
	}
	if err := w.WriteAll(table.Records()); err != nil {
		return fmt.Errorf("error writing csv rows: %w", err)
	}
	return nil
}

func writeJSON(path string, doc Document) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating result file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("error writing results to file: %w", err)
	}
	return nil
}
