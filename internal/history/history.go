// internal/history/history.go
// Package history keeps a SQLite record of completed scenario runs so later
// runs can compare against earlier ones.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNoRuns is returned when no stored run matches a query.
var ErrNoRuns = errors.New("history: no matching runs")

// Run is one completed scenario execution.
type Run struct {
	ID         string    `json:"id"`
	Scenario   string    `json:"scenario"`
	Endpoint   string    `json:"endpoint"`
	Model      string    `json:"model"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Cases      []Case    `json:"cases,omitempty"`
}

// Case is one aggregated row of a run.
type Case struct {
	Label         string  `json:"label"`
	ContextLength int     `json:"context_length,omitempty"`
	TTFTMillis    float64 `json:"ttft_ms"`
	DecodeToks    float64 `json:"decode_toks"`
	OK            bool    `json:"ok"`
}

// Summary describes a stored run without its cases.
type Summary struct {
	Run
	CaseCount int `json:"case_count"`
	OKCount   int `json:"ok_count"`
}

// NewRun returns a run with a fresh identifier.
func NewRun(scenario, endpoint, model string, startedAt time.Time) Run {
	return Run{
		ID:        uuid.NewString(),
		Scenario:  scenario,
		Endpoint:  endpoint,
		Model:     model,
		StartedAt: startedAt.UTC(),
	}
}

// Store is a migrated SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies pending migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores run and its cases in one transaction. A zero FinishedAt is
// recorded as now.
func (s *Store) Save(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("history: run id is required")
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, scenario, endpoint, model, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Scenario, run.Endpoint, run.Model, formatTime(run.StartedAt), formatTime(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for i, c := range run.Cases {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO cases (run_id, position, label, context_length, ttft_ms, decode_toks, ok) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, c.Label, c.ContextLength, c.TTFTMillis, c.DecodeToks, c.OK)
		if err != nil {
			return fmt.Errorf("insert case %q: %w", c.Label, err)
		}
	}
	return tx.Commit()
}

// Recent lists the newest runs first. An empty scenario matches every run.
func (s *Store) Recent(ctx context.Context, scenario string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.scenario, r.endpoint, r.model, r.started_at, r.finished_at,
		       COUNT(c.id), COALESCE(SUM(c.ok), 0)
		FROM runs r
		LEFT JOIN cases c ON c.run_id = r.id
		WHERE (? = '' OR r.scenario = ?)
		GROUP BY r.id
		ORDER BY r.started_at DESC
		LIMIT ?`, scenario, scenario, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var started, finished string
		if err := rows.Scan(&sum.ID, &sum.Scenario, &sum.Endpoint, &sum.Model, &started, &finished, &sum.CaseCount, &sum.OKCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.StartedAt, sum.FinishedAt = parseTime(started), parseTime(finished)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Get loads a run with its cases.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	var run Run
	var started, finished string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, scenario, endpoint, model, started_at, finished_at FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &run.Scenario, &run.Endpoint, &run.Model, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: id %s", ErrNoRuns, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	run.StartedAt, run.FinishedAt = parseTime(started), parseTime(finished)

	run.Cases, err = s.cases(ctx, id)
	return run, err
}

func (s *Store) cases(ctx context.Context, runID string) ([]Case, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, context_length, ttft_ms, decode_toks, ok FROM cases WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	var out []Case
	for rows.Next() {
		var c Case
		if err := rows.Scan(&c.Label, &c.ContextLength, &c.TTFTMillis, &c.DecodeToks, &c.OK); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LatestDecodeByContext returns the decode rate per context length from the
// newest run of scenario that recorded context lengths, along with its id.
func (s *Store) LatestDecodeByContext(ctx context.Context, scenario string) (map[int]float64, string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx, `
		SELECT r.id FROM runs r
		WHERE r.scenario = ? AND EXISTS (
			SELECT 1 FROM cases c WHERE c.run_id = r.id AND c.context_length > 0
		)
		ORDER BY r.started_at DESC
		LIMIT 1`, scenario).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("%w: scenario %s", ErrNoRuns, scenario)
	}
	if err != nil {
		return nil, "", fmt.Errorf("query latest run: %w", err)
	}

	cases, err := s.cases(ctx, runID)
	if err != nil {
		return nil, "", err
	}
	out := make(map[int]float64, len(cases))
	for _, c := range cases {
		if c.ContextLength > 0 {
			out[c.ContextLength] = c.DecodeToks
		}
	}
	return out, runID, nil
}

// timeLayout has fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
