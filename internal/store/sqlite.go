// Package store archives pipeline runs in SQLite: run metadata, validation
// reports, and raw submission snapshots. The archive is write-only history;
// a run never reads previous state back.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store represents the SQLite archive implementation
type Store struct {
	db *sql.DB
}

// RunRecord represents one archived pipeline run
type RunRecord struct {
	ID           string         `json:"id"`
	Status       string         `json:"status"`
	Strategy     string         `json:"strategy"`
	Period       string         `json:"period"`
	Orgs         []string       `json:"orgs"`
	RecordCounts map[string]int `json:"record_counts,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at,omitempty"`
}

// ReportEntry is one validation error or warning attached to a run
type ReportEntry struct {
	RunID   string `json:"run_id"`
	Kind    string `json:"kind"` // "error" or "warning"
	Org     string `json:"org,omitempty"`
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

// ArchivedSubmission is a raw submission file snapshot kept with its run
type ArchivedSubmission struct {
	RunID       string    `json:"run_id"`
	Org         string    `json:"org"`
	Filename    string    `json:"filename"`
	DataType    string    `json:"data_type"`
	RecordCount int       `json:"record_count"`
	RawJSON     string    `json:"raw_json"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewStore creates a new SQLite archive instance
func NewStore(dbPath string) (*Store, error) {
	// Ensure target directory exists (e.g., ./data)
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open(sqliteDriver, dbPath+"?_journal_mode=WAL&_foreign_keys=off")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate performs database migrations
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			strategy TEXT NOT NULL,
			period TEXT NOT NULL,
			orgs TEXT NOT NULL,
			record_counts TEXT,
			started_at INTEGER NOT NULL,
			completed_at INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS report_entries (
			run_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			org TEXT,
			file TEXT,
			message TEXT NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS submissions (
			run_id TEXT NOT NULL,
			org TEXT NOT NULL,
			filename TEXT NOT NULL,
			data_type TEXT,
			record_count INTEGER,
			raw_json TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_report_entries_run_id ON report_entries(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_run_id ON submissions(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_org ON submissions(org)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// SaveRun inserts a new run row in the "running" state
func (s *Store) SaveRun(ctx context.Context, run RunRecord) error {
	orgs, err := json.Marshal(run.Orgs)
	if err != nil {
		return fmt.Errorf("failed to marshal orgs: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, strategy, period, orgs, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Status, run.Strategy, run.Period, string(orgs), run.StartedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// CompleteRun marks a run finished with its terminal status and record counts
func (s *Store) CompleteRun(ctx context.Context, runID, status string, counts map[string]int) error {
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("failed to marshal record counts: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, record_counts = ?, completed_at = ? WHERE id = ?`,
		status, string(countsJSON), time.Now().Unix(), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveReportEntries attaches validation errors/warnings to a run
func (s *Store) SaveReportEntries(ctx context.Context, entries []ReportEntry) error {
	for _, e := range entries {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO report_entries (run_id, kind, org, file, message) VALUES (?, ?, ?, ?, ?)`,
			e.RunID, e.Kind, e.Org, e.File, e.Message,
		)
		if err != nil {
			return fmt.Errorf("failed to save report entry: %w", err)
		}
	}
	return nil
}

// ArchiveSubmission stores a raw submission snapshot for a run
func (s *Store) ArchiveSubmission(ctx context.Context, sub ArchivedSubmission) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (run_id, org, filename, data_type, record_count, raw_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.RunID, sub.Org, sub.Filename, sub.DataType, sub.RecordCount, sub.RawJSON, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to archive submission: %w", err)
	}
	return nil
}

// ListRuns returns archived runs, most recent first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, strategy, period, orgs, record_counts, started_at, completed_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		var orgsJSON string
		var countsJSON sql.NullString
		var startedAt int64
		var completedAt sql.NullInt64

		if err := rows.Scan(&run.ID, &run.Status, &run.Strategy, &run.Period,
			&orgsJSON, &countsJSON, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(orgsJSON), &run.Orgs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal orgs: %w", err)
		}
		if countsJSON.Valid && countsJSON.String != "" {
			if err := json.Unmarshal([]byte(countsJSON.String), &run.RecordCounts); err != nil {
				return nil, fmt.Errorf("failed to unmarshal record counts: %w", err)
			}
		}
		run.StartedAt = time.Unix(startedAt, 0)
		if completedAt.Valid {
			run.CompletedAt = time.Unix(completedAt.Int64, 0)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListReportEntries returns the validation report entries for a run
func (s *Store) ListReportEntries(ctx context.Context, runID string) ([]ReportEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, kind, org, file, message FROM report_entries WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list report entries: %w", err)
	}
	defer rows.Close()

	var entries []ReportEntry
	for rows.Next() {
		var e ReportEntry
		if err := rows.Scan(&e.RunID, &e.Kind, &e.Org, &e.File, &e.Message); err != nil {
			return nil, fmt.Errorf("failed to scan report entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
